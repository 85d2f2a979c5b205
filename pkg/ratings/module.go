package ratings

import (
	"context"
	"fmt"
	"sort"

	"github.com/cfoust/broadside/pkg/match"
	"github.com/cfoust/broadside/pkg/mmr"
	"github.com/cfoust/broadside/pkg/utils"

	opt "github.com/repeale/fp-go/option"
	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
)

// Rating is a participant's standing across every match they finished.
type Rating struct {
	Name    string `json:"name"`
	Rating  int    `json:"rating"`
	Wins    int    `json:"wins"`
	Losses  int    `json:"losses"`
	Matches int    `json:"matches"`
}

func NewRating(name string) Rating {
	return Rating{
		Name:   name,
		Rating: mmr.INITIAL_RATING,
	}
}

type Store interface {
	Load(ctx context.Context, name string) (opt.Option[Rating], error)
	Save(ctx context.Context, rating Rating) error
	// The best ratings first.
	Top(ctx context.Context, limit int) ([]Rating, error)
	Close() error
}

func sortRatings(ratings []Rating) {
	sort.Slice(ratings, func(i, j int) bool {
		if ratings[i].Rating != ratings[j].Rating {
			return ratings[i].Rating > ratings[j].Rating
		}
		return ratings[i].Name < ratings[j].Name
	})
}

// Service applies match results to the ratings in a store.
type Service struct {
	store Store
	elo   *mmr.Elo
	mutex deadlock.Mutex
}

func NewService(store Store) *Service {
	return &Service{
		store: store,
		elo:   mmr.NewElo(),
	}
}

func (s *Service) Get(ctx context.Context, name string) (Rating, error) {
	rating, err := s.store.Load(ctx, name)
	if err != nil {
		return Rating{}, err
	}

	if opt.IsNone(rating) {
		return NewRating(name), nil
	}

	return rating.Value, nil
}

func (s *Service) Top(ctx context.Context, limit int) ([]Rating, error) {
	return s.store.Top(ctx, limit)
}

// Record moves rating from the loser to the winner. Everyone else in the
// cohort only has the match counted.
func (s *Service) Record(ctx context.Context, winner string, loser string, cohort []string) (mmr.Outcome, mmr.Outcome, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if winner == loser {
		return mmr.Outcome{}, mmr.Outcome{}, fmt.Errorf("%s cannot beat themselves", winner)
	}

	winnerRating, err := s.Get(ctx, winner)
	if err != nil {
		return mmr.Outcome{}, mmr.Outcome{}, err
	}

	loserRating, err := s.Get(ctx, loser)
	if err != nil {
		return mmr.Outcome{}, mmr.Outcome{}, err
	}

	winnerOutcome, loserOutcome := s.elo.Win(winnerRating.Rating, loserRating.Rating)

	winnerRating.Rating = winnerOutcome.Rating
	winnerRating.Wins++
	winnerRating.Matches++

	loserRating.Rating = loserOutcome.Rating
	loserRating.Losses++
	loserRating.Matches++

	err = s.store.Save(ctx, winnerRating)
	if err != nil {
		return mmr.Outcome{}, mmr.Outcome{}, err
	}

	err = s.store.Save(ctx, loserRating)
	if err != nil {
		return mmr.Outcome{}, mmr.Outcome{}, err
	}

	for _, name := range cohort {
		if name == winner || name == loser {
			continue
		}

		rating, err := s.Get(ctx, name)
		if err != nil {
			return mmr.Outcome{}, mmr.Outcome{}, err
		}

		rating.Matches++

		err = s.store.Save(ctx, rating)
		if err != nil {
			return mmr.Outcome{}, mmr.Outcome{}, err
		}
	}

	return winnerOutcome, loserOutcome, nil
}

func names(participants []*match.Participant) []string {
	names := make([]string, len(participants))
	for i, participant := range participants {
		names[i] = participant.Name
	}
	return names
}

// PollResults records every finished match published on the topic until
// the context is canceled.
func (s *Service) PollResults(ctx context.Context, results *utils.Topic[*match.Result]) {
	subscriber := results.Subscribe(1)
	defer subscriber.Done()

	for {
		select {
		case result := <-subscriber.Recv():
			winner := result.Winner.Name
			loser := result.Loser.Name

			winnerOutcome, loserOutcome, err := s.Record(ctx, winner, loser, names(result.Cohort))
			if err != nil {
				log.Error().Err(err).Msg("failed to record match result")
				continue
			}

			log.Info().
				Str("winner", winner).
				Str("loser", loser).
				Msgf("ratings: %s %s, %s %s", winner, winnerOutcome.String(), loser, loserOutcome.String())
		case <-ctx.Done():
			return
		}
	}
}
