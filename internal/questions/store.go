package questions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/DoyleJ11/trivia-rooms/internal/engine"
)

// StoredQuestion is a cached generated question.
type StoredQuestion struct {
	ID            uint           `gorm:"primaryKey"`
	Topic         string         `gorm:"size:128;not null;index"`
	QuestionText  string         `gorm:"not null"`
	Choices       datatypes.JSON `gorm:"type:jsonb;not null"`
	CorrectAnswer string         `gorm:"not null"`
	Difficulty    string         `gorm:"size:32;not null;default:medium"`
	UsageCount    int            `gorm:"not null;default:0"`
	LastUsed      *time.Time
	CreatedAt     time.Time `gorm:"not null"`
}

func (StoredQuestion) TableName() string { return "questions" }

func (q StoredQuestion) Descriptor() (engine.Descriptor, error) {
	var choices []string
	if err := json.Unmarshal(q.Choices, &choices); err != nil {
		return engine.Descriptor{}, fmt.Errorf("decode choices for question %d: %w", q.ID, err)
	}
	return engine.Descriptor{Question: q.QuestionText, Choices: choices, CorrectAnswer: q.CorrectAnswer}, nil
}

type Store struct {
	db *gorm.DB
}

// Open connects to Postgres.
func Open(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	return gorm.Open(postgres.Open(dsn), &gorm.Config{})
}

// Migrate runs GORM auto-migrations for the question cache.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("db connection is nil")
	}
	return conn.AutoMigrate(&StoredQuestion{})
}

func NewStore(conn *gorm.DB) *Store { return &Store{db: conn} }

func (s *Store) Save(ctx context.Context, topic, difficulty string, qs []engine.Descriptor) ([]uint, error) {
	if len(qs) == 0 {
		return nil, nil
	}
	rows := make([]StoredQuestion, 0, len(qs))
	for _, q := range qs {
		choices, err := json.Marshal(q.Choices)
		if err != nil {
			return nil, err
		}
		rows = append(rows, StoredQuestion{
			Topic:         topic,
			QuestionText:  q.Question,
			Choices:       datatypes.JSON(choices),
			CorrectAnswer: q.CorrectAnswer,
			Difficulty:    difficulty,
		})
	}
	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, fmt.Errorf("store questions: %w", err)
	}
	ids := make([]uint, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids, nil
}

func (s *Store) Count(ctx context.Context, topic string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&StoredQuestion{}).
		Where("LOWER(topic) = LOWER(?)", topic).
		Count(&n).Error
	return n, err
}

// Random returns the least used questions for a topic, shuffled within equal usage.
func (s *Store) Random(ctx context.Context, topic string, limit int) ([]StoredQuestion, error) {
	var rows []StoredQuestion
	err := s.db.WithContext(ctx).
		Where("LOWER(topic) = LOWER(?)", topic).
		Order(clause.OrderBy{Expression: clause.Expr{SQL: "usage_count ASC, RANDOM()"}}).
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (s *Store) MarkUsed(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&StoredQuestion{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"usage_count": gorm.Expr("usage_count + 1"),
			"last_used":   gorm.Expr("CURRENT_TIMESTAMP"),
		}).Error
}
