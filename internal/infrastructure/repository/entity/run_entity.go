package entity

import (
	"time"

	"catalog-content-sync/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoRunDoc represents a sync run report in MongoDB
type MongoRunDoc struct {
	ID         primitive.ObjectID        `bson:"_id,omitempty"`
	RunID      string                    `bson:"runId"`
	Command    string                    `bson:"command"`
	Tasks      []string                  `bson:"tasks"`
	Status     string                    `bson:"status"`
	Error      string                    `bson:"error,omitempty"`
	Results    []MongoResultDoc          `bson:"results"`
	Errors     map[string][]MongoItemDoc `bson:"errors,omitempty"`
	Summary    MongoSummaryDoc           `bson:"summary"`
	StartedAt  time.Time                 `bson:"startedAt"`
	FinishedAt time.Time                 `bson:"finishedAt"`
}

type MongoResultDoc struct {
	Family  string `bson:"family"`
	Created int    `bson:"created"`
	Updated int    `bson:"updated"`
	Skipped int    `bson:"skipped"`
	Failed  int    `bson:"failed"`
}

type MongoItemDoc struct {
	Key     string `bson:"key"`
	Message string `bson:"message"`
}

type MongoSummaryDoc struct {
	Total   int `bson:"total"`
	Success int `bson:"success"`
	Failed  int `bson:"failed"`
	Pending int `bson:"pending"`
	Skipped int `bson:"skipped"`
}

// ToDomain converts the MongoDB document to a run report
func (d *MongoRunDoc) ToDomain() *domain.RunReport {
	report := &domain.RunReport{
		RunID:   d.RunID,
		Command: d.Command,
		Tasks:   d.Tasks,
		Status:  d.Status,
		Error:   d.Error,
		Summary: domain.ActionSummary{
			Total:   d.Summary.Total,
			Success: d.Summary.Success,
			Failed:  d.Summary.Failed,
			Pending: d.Summary.Pending,
			Skipped: d.Summary.Skipped,
		},
		StartedAt:  d.StartedAt,
		FinishedAt: d.FinishedAt,
	}

	for _, r := range d.Results {
		report.Results = append(report.Results, domain.ResultCounts(r))
	}
	if len(d.Errors) > 0 {
		report.Errors = make(map[string][]domain.ItemError, len(d.Errors))
		for family, items := range d.Errors {
			for _, item := range items {
				report.Errors[family] = append(report.Errors[family], domain.ItemError(item))
			}
		}
	}

	return report
}

// MongoRunDocFromDomain converts a run report to a MongoDB document.
// The ObjectID is left to the server.
func MongoRunDocFromDomain(report *domain.RunReport) *MongoRunDoc {
	doc := &MongoRunDoc{
		RunID:   report.RunID,
		Command: report.Command,
		Tasks:   report.Tasks,
		Status:  report.Status,
		Error:   report.Error,
		Results: make([]MongoResultDoc, 0, len(report.Results)),
		Summary: MongoSummaryDoc{
			Total:   report.Summary.Total,
			Success: report.Summary.Success,
			Failed:  report.Summary.Failed,
			Pending: report.Summary.Pending,
			Skipped: report.Summary.Skipped,
		},
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
	}

	for _, r := range report.Results {
		doc.Results = append(doc.Results, MongoResultDoc(r))
	}
	if len(report.Errors) > 0 {
		doc.Errors = make(map[string][]MongoItemDoc, len(report.Errors))
		for family, items := range report.Errors {
			for _, item := range items {
				doc.Errors[family] = append(doc.Errors[family], MongoItemDoc(item))
			}
		}
	}

	return doc
}
