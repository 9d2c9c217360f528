package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fieldmind/fieldmind-go-backend/internal/db"
	"github.com/fieldmind/fieldmind-go-backend/internal/models"
)

// MongoStore persists inspections and findings in MongoDB. Tally updates
// and the finalize status flip are done with guarded single-document
// updates so the invariants hold without cross-document transactions.
type MongoStore struct{}

func NewMongoStore() *MongoStore {
	return &MongoStore{}
}

func (s *MongoStore) CreateInspection(ctx context.Context, insp *models.Inspection) error {
	collection := db.GetCollection("inspections")
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := collection.InsertOne(ctx, insp)
	return err
}

func (s *MongoStore) GetInspection(ctx context.Context, id string) (*models.Inspection, error) {
	collection := db.GetCollection("inspections")
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var insp models.Inspection
	err := collection.FindOne(ctx, bson.M{"_id": id}).Decode(&insp)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &insp, nil
}

func (s *MongoStore) ListInspections(ctx context.Context, limit int) ([]models.Inspection, error) {
	collection := db.GetCollection("inspections")
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	findOptions := options.Find()
	findOptions.SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		findOptions.SetLimit(int64(limit))
	}

	cur, err := collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var inspections []models.Inspection
	if err := cur.All(ctx, &inspections); err != nil {
		return nil, err
	}
	if inspections == nil {
		inspections = []models.Inspection{}
	}
	return inspections, nil
}

func (s *MongoStore) ListFindings(ctx context.Context, inspectionID string) ([]models.Finding, error) {
	collection := db.GetCollection("findings")
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	findOptions := options.Find()
	findOptions.SetSort(bson.D{{Key: "section_order", Value: 1}, {Key: "created_at", Value: 1}})

	cur, err := collection.Find(ctx, bson.M{"inspection_id": inspectionID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var findings []models.Finding
	if err := cur.All(ctx, &findings); err != nil {
		return nil, err
	}
	if findings == nil {
		findings = []models.Finding{}
	}
	return findings, nil
}

func tallyField(status string) string {
	switch status {
	case models.StatusGo:
		return "go_count"
	case models.StatusCaution:
		return "caution_count"
	default:
		return "nogo_count"
	}
}

// AppendFinding inserts the finding document first, then increments the
// matching tally with a status guard. If the guard loses (the inspection
// was finalized in between), the finding is removed again so the tally sum
// still equals the number of persisted findings.
func (s *MongoStore) AppendFinding(ctx context.Context, finding *models.Finding) (*models.Inspection, error) {
	findings := db.GetCollection("findings")
	inspections := db.GetCollection("inspections")
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := findings.InsertOne(ctx, finding); err != nil {
		return nil, err
	}

	filter := bson.M{"_id": finding.InspectionID, "status": bson.M{"$ne": models.InspectionComplete}}
	update := bson.M{"$inc": bson.M{tallyField(finding.Status): 1}}
	res, err := inspections.UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, err
	}
	if res.ModifiedCount == 0 {
		if _, delErr := findings.DeleteOne(ctx, bson.M{"_id": finding.ID}); delErr != nil {
			log.Printf("Failed to roll back finding %s: %v", finding.ID, delErr)
		}
		var insp models.Inspection
		if err := inspections.FindOne(ctx, bson.M{"_id": finding.InspectionID}).Decode(&insp); err != nil {
			return nil, ErrNotFound
		}
		return nil, ErrInspectionClosed
	}

	var insp models.Inspection
	if err := inspections.FindOne(ctx, bson.M{"_id": finding.InspectionID}).Decode(&insp); err != nil {
		return nil, err
	}
	return &insp, nil
}

// FinalizeInspection is a compare-and-set loop: the verdict is computed
// from a snapshot of the tallies and only written if both the status and
// the tallies are unchanged. A finding landing mid-finalize forces a
// re-read, so nothing recorded is ever silently excluded from the verdict.
func (s *MongoStore) FinalizeInspection(ctx context.Context, id string, fn FinalizeFunc) (*models.Inspection, error) {
	collection := db.GetCollection("inspections")
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for attempt := 0; attempt < 5; attempt++ {
		var insp models.Inspection
		err := collection.FindOne(ctx, bson.M{"_id": id}).Decode(&insp)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, ErrNotFound
			}
			return nil, err
		}
		if insp.Status == models.InspectionComplete {
			return nil, ErrAlreadyCompleted
		}

		v, hash, completedAt := fn(insp)
		filter := bson.M{
			"_id":           id,
			"status":        bson.M{"$ne": models.InspectionComplete},
			"go_count":      insp.GoCount,
			"caution_count": insp.CautionCount,
			"nogo_count":    insp.NoGoCount,
		}
		update := bson.M{"$set": bson.M{
			"status":         models.InspectionComplete,
			"overall_status": v.OverallStatus,
			"risk_score":     v.RiskScore,
			"content_hash":   hash,
			"completed_at":   completedAt,
		}}
		res, err := collection.UpdateOne(ctx, filter, update)
		if err != nil {
			return nil, err
		}
		if res.ModifiedCount > 0 {
			insp.Status = models.InspectionComplete
			insp.OverallStatus = v.OverallStatus
			risk := v.RiskScore
			insp.RiskScore = &risk
			insp.ContentHash = hash
			at := completedAt
			insp.CompletedAt = &at
			return &insp, nil
		}
		// Lost the race: either a concurrent finalize (next read returns
		// ErrAlreadyCompleted) or a concurrent finding moved the tallies.
	}
	return nil, fmt.Errorf("finalize %s: too many concurrent updates", id)
}

func (s *MongoStore) SetAnchor(ctx context.Context, id, reference, ledgerURL string, anchoredAt time.Time) (*models.Inspection, error) {
	collection := db.GetCollection("inspections")
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	filter := bson.M{
		"_id":    id,
		"status": models.InspectionComplete,
		"$or": []bson.M{
			{"ledger_reference": bson.M{"$exists": false}},
			{"ledger_reference": ""},
		},
	}
	update := bson.M{"$set": bson.M{
		"ledger_reference": reference,
		"ledger_url":       ledgerURL,
		"anchored_at":      anchoredAt,
	}}
	if _, err := collection.UpdateOne(ctx, filter, update); err != nil {
		return nil, err
	}

	// The guarded update is a no-op when a reference already exists, so
	// the stored reference always wins over a racing second anchor.
	var insp models.Inspection
	err := collection.FindOne(ctx, bson.M{"_id": id}).Decode(&insp)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if insp.Status != models.InspectionComplete {
		return nil, ErrNotFinalized
	}
	return &insp, nil
}

func (s *MongoStore) FindByReference(ctx context.Context, reference string) (*models.Inspection, error) {
	collection := db.GetCollection("inspections")
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"$or": []bson.M{
		{"ledger_reference": reference},
		{"content_hash": reference},
	}}
	var insp models.Inspection
	err := collection.FindOne(ctx, filter).Decode(&insp)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &insp, nil
}
