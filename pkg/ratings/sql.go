package ratings

import (
	"context"
	"errors"

	opt "github.com/repeale/fp-go/option"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Standing struct {
	ID      uint   `gorm:"primaryKey"`
	Name    string `gorm:"uniqueIndex;not null;size:64"`
	Rating  int    `gorm:"not null"`
	Wins    int
	Losses  int
	Matches int
}

func (s Standing) rating() Rating {
	return Rating{
		Name:    s.Name,
		Rating:  s.Rating,
		Wins:    s.Wins,
		Losses:  s.Losses,
		Matches: s.Matches,
	}
}

func InitDB(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(&Standing{})
	if err != nil {
		return nil, err
	}

	return db, nil
}

// SQLStore keeps ratings in a SQLite database.
type SQLStore struct {
	db *gorm.DB
}

var _ Store = (*SQLStore)(nil)

func NewSQLStore(path string) (*SQLStore, error) {
	db, err := InitDB(path)
	if err != nil {
		return nil, err
	}

	return &SQLStore{db: db}, nil
}

func (s *SQLStore) find(ctx context.Context, name string) (opt.Option[Standing], error) {
	var standing Standing
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&standing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return opt.None[Standing](), nil
	}
	if err != nil {
		return opt.None[Standing](), err
	}
	return opt.Some(standing), nil
}

func (s *SQLStore) Load(ctx context.Context, name string) (opt.Option[Rating], error) {
	standing, err := s.find(ctx, name)
	if err != nil || opt.IsNone(standing) {
		return opt.None[Rating](), err
	}
	return opt.Some(standing.Value.rating()), nil
}

func (s *SQLStore) Save(ctx context.Context, rating Rating) error {
	existing, err := s.find(ctx, rating.Name)
	if err != nil {
		return err
	}

	standing := Standing{
		Name:    rating.Name,
		Rating:  rating.Rating,
		Wins:    rating.Wins,
		Losses:  rating.Losses,
		Matches: rating.Matches,
	}

	if opt.IsSome(existing) {
		standing.ID = existing.Value.ID
	}

	return s.db.WithContext(ctx).Save(&standing).Error
}

func (s *SQLStore) Top(ctx context.Context, limit int) ([]Rating, error) {
	var standings []Standing

	query := s.db.WithContext(ctx).Order("rating desc").Order("name")
	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Find(&standings).Error
	if err != nil {
		return nil, err
	}

	ratings := make([]Rating, len(standings))
	for i, standing := range standings {
		ratings[i] = standing.rating()
	}

	return ratings, nil
}

func (s *SQLStore) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
