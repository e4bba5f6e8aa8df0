package receipt

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

const (
	analysisBucketName     = "analyses"
	subscriptionBucketName = "subscriptions"
)

// DB defines the interface for database operations
type DB interface {
	// SaveRecord saves an analyzed receipt to the database
	SaveRecord(record *Record) error

	// GetRecord retrieves an analyzed receipt by ID
	GetRecord(id string) (*Record, error)

	// ListRecords returns all analyzed receipts, newest first
	ListRecords() ([]*Record, error)

	// DeleteRecord removes an analyzed receipt from the database
	DeleteRecord(id string) error

	// SaveSubscription saves a newsletter subscription
	SaveSubscription(sub *Subscription) error

	// GetSubscriptionByEmail retrieves a subscription by email address
	GetSubscriptionByEmail(email string) (*Subscription, error)

	// ListSubscriptions returns all newsletter subscriptions
	ListSubscriptions() ([]*Subscription, error)

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	// Create buckets if they don't exist
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(analysisBucketName)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(subscriptionBucketName)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveRecord saves an analyzed receipt to the database
func (b *BoltDB) SaveRecord(record *Record) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(analysisBucketName))
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshaling record: %w", err)
		}
		return bucket.Put([]byte(record.ID), data)
	})
}

// GetRecord retrieves an analyzed receipt by ID
func (b *BoltDB) GetRecord(id string) (*Record, error) {
	var record *Record
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(analysisBucketName))
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("record not found: %s", id)
		}
		return json.Unmarshal(data, &record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ListRecords returns all analyzed receipts, newest first
func (b *BoltDB) ListRecords() ([]*Record, error) {
	records := make([]*Record, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(analysisBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var record Record
			if err := json.Unmarshal(v, &record); err != nil {
				return fmt.Errorf("unmarshaling record: %w", err)
			}
			records = append(records, &record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

// DeleteRecord removes an analyzed receipt from the database
func (b *BoltDB) DeleteRecord(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(analysisBucketName))
		return bucket.Delete([]byte(id))
	})
}

// SaveSubscription saves a newsletter subscription keyed by ID
func (b *BoltDB) SaveSubscription(sub *Subscription) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(subscriptionBucketName))
		data, err := json.Marshal(sub)
		if err != nil {
			return fmt.Errorf("marshaling subscription: %w", err)
		}
		return bucket.Put([]byte(sub.ID), data)
	})
}

// GetSubscriptionByEmail retrieves a subscription by email address
func (b *BoltDB) GetSubscriptionByEmail(email string) (*Subscription, error) {
	var found *Subscription
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(subscriptionBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var sub Subscription
			if err := json.Unmarshal(v, &sub); err != nil {
				return fmt.Errorf("unmarshaling subscription: %w", err)
			}
			if sub.Email == email {
				found = &sub
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("subscription not found: %s", email)
	}
	return found, nil
}

// ListSubscriptions returns all newsletter subscriptions
func (b *BoltDB) ListSubscriptions() ([]*Subscription, error) {
	subs := make([]*Subscription, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(subscriptionBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var sub Subscription
			if err := json.Unmarshal(v, &sub); err != nil {
				return fmt.Errorf("unmarshaling subscription: %w", err)
			}
			subs = append(subs, &sub)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
