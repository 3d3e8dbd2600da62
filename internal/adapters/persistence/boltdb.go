package persistence

import (
	"fmt"
	"os"
	"path/filepath"

	boltdb "github.com/andrew-solarstorm/bolt-db"
	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/venue-router/internal/domain"
)

const (
	TokenPoliciesBucket = "token_policies"

	DefaultDBPath = "./data/venue-router.db"
)

// StoredTokenPolicy is the on-disk shape of a token policy record.
type StoredTokenPolicy struct {
	Mint     string `json:"mint"`
	Symbol   string `json:"symbol,omitempty"`
	Standard uint8  `json:"standard"`
	Fee      uint64 `json:"fee"`
	Decimals uint8  `json:"decimals,omitempty"`
}

type Storage struct {
	db     *boltdb.BoltDatabase
	dbPath string
}

func NewStorage(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	os.MkdirAll(filepath.Dir(dbPath), 0755)

	db := boltdb.NewBoltDatabase(dbPath)
	if db == nil {
		return nil, fmt.Errorf("failed to open database at %s", dbPath)
	}

	log.Info().Str("path", dbPath).Msg("[policyStorage] opened database")

	return &Storage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Storage) SaveTokenPolicy(info domain.TokenInfo) error {
	stored := policyToStored(info)
	data, err := sonic.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal token policy: %w", err)
	}

	return s.db.Set(TokenPoliciesBucket, []byte(info.Mint.String()), data)
}

func (s *Storage) SaveTokenPolicyBatch(infos []domain.TokenInfo) error {
	if len(infos) == 0 {
		return nil
	}

	batch := s.db.NewBatch()
	for _, info := range infos {
		stored := policyToStored(info)
		data, err := sonic.Marshal(stored)
		if err != nil {
			return fmt.Errorf("failed to marshal token policy %s: %w", info.Mint.String(), err)
		}

		value := data
		op := &boltdb.WriteOperation{
			Bucket: []byte(TokenPoliciesBucket),
			Key:    []byte(info.Mint.String()),
			Value:  &value,
			Op:     boltdb.OpSet,
		}
		if err := batch.Add(op); err != nil {
			return fmt.Errorf("failed to add token policy %s to batch: %w", info.Mint.String(), err)
		}
	}

	if err := batch.Execute(); err != nil {
		log.Error().Err(err).Int("count", len(infos)).Msg("[policyStorage] FAILED to execute batch")
		return err
	}

	log.Info().Int("count", len(infos)).Msg("[policyStorage] saved token policy batch")
	return nil
}

func (s *Storage) LoadAllTokenPolicies() ([]domain.TokenInfo, error) {
	data, err := s.db.List(TokenPoliciesBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list token policies: %w", err)
	}

	infos := make([]domain.TokenInfo, 0, len(data))
	failed := 0

	for mint, value := range data {
		var stored StoredTokenPolicy
		if err := sonic.Unmarshal(value, &stored); err != nil {
			log.Error().Str("mint", mint).Err(err).Msg("[policyStorage] failed to unmarshal policy, skipping")
			failed++
			continue
		}

		info, err := storedToPolicy(&stored)
		if err != nil {
			log.Error().Str("mint", mint).Err(err).Msg("[policyStorage] failed to convert stored policy, skipping")
			failed++
			continue
		}

		infos = append(infos, info)
	}

	if failed > 0 {
		log.Error().
			Int("total_in_db", len(data)).
			Int("loaded", len(infos)).
			Int("failed", failed).
			Msg("[policyStorage] policy loading completed with errors")
	} else {
		log.Info().
			Int("total_in_db", len(data)).
			Int("loaded", len(infos)).
			Msg("[policyStorage] policy loading completed successfully")
	}

	return infos, nil
}

func policyToStored(info domain.TokenInfo) *StoredTokenPolicy {
	return &StoredTokenPolicy{
		Mint:     info.Mint.String(),
		Symbol:   info.Symbol,
		Standard: uint8(info.Standard),
		Fee:      info.Fee,
		Decimals: info.Decimals,
	}
}

func storedToPolicy(stored *StoredTokenPolicy) (domain.TokenInfo, error) {
	mint, err := solana.PublicKeyFromBase58(stored.Mint)
	if err != nil {
		return domain.TokenInfo{}, fmt.Errorf("invalid mint %q: %w", stored.Mint, err)
	}

	return domain.TokenInfo{
		Mint:     mint,
		Symbol:   stored.Symbol,
		Standard: domain.TokenStandard(stored.Standard),
		Fee:      stored.Fee,
		Decimals: stored.Decimals,
	}, nil
}
