package ratings

import (
	"context"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/fxamacker/cbor/v2"
	"github.com/redis/go-redis/v9"
	opt "github.com/repeale/fp-go/option"
)

const (
	// Sorted set of names scored by rating.
	LEADERBOARD_KEY = "broadside-ratings"
)

type record struct {
	Name    string `cbor:"1,keyasint"`
	Rating  int    `cbor:"2,keyasint"`
	Wins    int    `cbor:"3,keyasint"`
	Losses  int    `cbor:"4,keyasint"`
	Matches int    `cbor:"5,keyasint"`
}

// Names are arbitrary user input, so keys use a hash of the name instead.
func ratingKey(name string) string {
	return fmt.Sprintf("broadside-rating-%016x", xxhash.Sum64String(name))
}

func encodeRating(rating Rating) ([]byte, error) {
	return cbor.Marshal(record(rating))
}

func decodeRating(data []byte) (Rating, error) {
	var value record
	err := cbor.Unmarshal(data, &value)
	if err != nil {
		return Rating{}, err
	}
	return Rating(value), nil
}

// RedisStore keeps ratings in Redis so several servers can share them.
type RedisStore struct {
	redis *redis.Client
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(ctx context.Context, address string, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	err := client.Ping(ctx).Err()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("could not reach redis at %s: %w", address, err)
	}

	return &RedisStore{redis: client}, nil
}

func (r *RedisStore) Load(ctx context.Context, name string) (opt.Option[Rating], error) {
	data, err := r.redis.Get(ctx, ratingKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return opt.None[Rating](), nil
	}
	if err != nil {
		return opt.None[Rating](), err
	}

	rating, err := decodeRating(data)
	if err != nil {
		return opt.None[Rating](), err
	}

	return opt.Some(rating), nil
}

func (r *RedisStore) Save(ctx context.Context, rating Rating) error {
	data, err := encodeRating(rating)
	if err != nil {
		return err
	}

	pipe := r.redis.TxPipeline()
	pipe.Set(ctx, ratingKey(rating.Name), data, 0)
	pipe.ZAdd(ctx, LEADERBOARD_KEY, redis.Z{
		Score:  float64(rating.Rating),
		Member: rating.Name,
	})

	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisStore) Top(ctx context.Context, limit int) ([]Rating, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}

	names, err := r.redis.ZRevRange(ctx, LEADERBOARD_KEY, 0, stop).Result()
	if err != nil {
		return nil, err
	}

	if len(names) == 0 {
		return []Rating{}, nil
	}

	pipe := r.redis.Pipeline()
	commands := make([]*redis.StringCmd, len(names))
	for i, name := range names {
		commands[i] = pipe.Get(ctx, ratingKey(name))
	}

	_, err = pipe.Exec(ctx)
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	ratings := make([]Rating, 0, len(names))
	for _, command := range commands {
		data, err := command.Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, err
		}

		rating, err := decodeRating(data)
		if err != nil {
			return nil, err
		}
		ratings = append(ratings, rating)
	}

	sortRatings(ratings)
	return ratings, nil
}

func (r *RedisStore) Close() error {
	return r.redis.Close()
}
