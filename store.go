package main

import (
	"database/sql"
	"fmt"
	"log"
	"time"
)

// pixelStore is the read/write contract against the durable store:
// one record per pixel, keyed by linear pixel index + 1, holding an
// RGB tuple. Alpha is never persisted.
type pixelStore interface {
	CountRecords() (int, error)
	LoadAll(expected int) ([]RGB, error)
	SeedAll(count int, color RGB) error
	WritePixel(recordKey int, color RGB) error
	WriteAll(color RGB) error
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS pixels (
			pixel_key INTEGER PRIMARY KEY,
			r SMALLINT NOT NULL,
			g SMALLINT NOT NULL,
			b SMALLINT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
	`)
	return err
}

type postgresStore struct {
	db *sql.DB
}

func (s *postgresStore) CountRecords() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM pixels`).Scan(&count)
	return count, err
}

// LoadAll reads every record back in key order. A gap in the key
// sequence means a partial write happened at some point; the caller
// treats that as fatal.
func (s *postgresStore) LoadAll(expected int) ([]RGB, error) {
	rows, err := s.db.Query(`
		SELECT pixel_key, r, g, b
		FROM pixels
		ORDER BY pixel_key
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	colors := make([]RGB, expected)
	seen := 0
	for rows.Next() {
		var key int
		var c RGB
		if err := rows.Scan(&key, &c.R, &c.G, &c.B); err != nil {
			return nil, err
		}
		if key < 1 || key > expected {
			return nil, fmt.Errorf("pixel record key %d outside 1..%d", key, expected)
		}
		if key != seen+1 {
			return nil, fmt.Errorf("pixel record %d missing", seen+1)
		}
		colors[key-1] = c
		seen++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if seen != expected {
		return nil, fmt.Errorf("pixel store holds %d of %d records", seen, expected)
	}
	return colors, nil
}

func (s *postgresStore) SeedAll(count int, color RGB) error {
	_, err := s.db.Exec(`
		INSERT INTO pixels (pixel_key, r, g, b, updated_at)
		SELECT gs, $2, $3, $4, NOW()
		FROM generate_series(1, $1) AS gs
	`, count, color.R, color.G, color.B)
	return err
}

func (s *postgresStore) WritePixel(recordKey int, color RGB) error {
	_, err := s.db.Exec(`
		INSERT INTO pixels (pixel_key, r, g, b, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (pixel_key)
		DO UPDATE SET
			r = EXCLUDED.r,
			g = EXCLUDED.g,
			b = EXCLUDED.b,
			updated_at = NOW()
	`, recordKey, color.R, color.G, color.B)
	return err
}

func (s *postgresStore) WriteAll(color RGB) error {
	_, err := s.db.Exec(`
		UPDATE pixels
		SET r = $1, g = $2, b = $3, updated_at = NOW()
	`, color.R, color.G, color.B)
	return err
}

// loadOrInitialize reconciles the in-memory canvas with the store at
// startup. A completely empty store is first boot: seed every record
// at the default color and paint the canvas to match. A full store is
// a restart: read it all back, alpha reconstructed as 255. Anything
// in between is a partial write and aborts startup.
func loadOrInitialize(store pixelStore, canvas *CanvasBuffer, defaultColor RGB) error {
	count, err := store.CountRecords()
	if err != nil {
		return err
	}

	if count == 0 {
		if err := store.SeedAll(canvas.PixelCount(), defaultColor); err != nil {
			return err
		}
		canvas.FullReset(defaultColor)
		log.Println("Pixel store seeded:", canvas.PixelCount(), "records")
		return nil
	}

	colors, err := store.LoadAll(canvas.PixelCount())
	if err != nil {
		return err
	}
	for i, c := range colors {
		canvas.Apply(i%canvas.Width(), i/canvas.Width(), c)
	}
	log.Println("Canvas reloaded from pixel store:", count, "records")
	return nil
}

type persistJob struct {
	RecordKey int
	Color     RGB
	QueuedAt  time.Time
}

const persistQueueDepth = 256

// Persister decouples durable writes from the hot mutation path: a
// bounded queue consumed by one worker goroutine. Per-pixel writes
// are fire-and-forget with no retry; a failure loses at most that
// write, and the in-memory canvas stays authoritative for the live
// session.
type Persister struct {
	store pixelStore
	jobs  chan persistJob
}

func NewPersister(store pixelStore) *Persister {
	return &Persister{
		store: store,
		jobs:  make(chan persistJob, persistQueueDepth),
	}
}

func (p *Persister) Start() {
	go func() {
		for job := range p.jobs {
			if err := p.store.WritePixel(job.RecordKey, job.Color); err != nil {
				log.Printf("persist: pixel write failed key=%d color=%d,%d,%d queued=%s err=%v",
					job.RecordKey, job.Color.R, job.Color.G, job.Color.B,
					job.QueuedAt.Format(time.RFC3339Nano), err)
			}
		}
	}()
}

// EnqueuePixel never blocks the mutation path: if the queue is full
// the job is dropped with a log line and the pixel stays dirty until
// some later write lands on it.
func (p *Persister) EnqueuePixel(recordKey int, color RGB) {
	job := persistJob{RecordKey: recordKey, Color: color, QueuedAt: time.Now().UTC()}
	select {
	case p.jobs <- job:
	default:
		log.Printf("persist: queue full, dropped write key=%d color=%d,%d,%d",
			recordKey, color.R, color.G, color.B)
	}
}

// PersistAll is the bulk write behind a reset. Unlike per-pixel
// writes it is awaited by the caller, though a failure is still only
// logged: a reset that reached the canvas and the broadcast must not
// look failed to the admin because storage hiccuped.
func (p *Persister) PersistAll(color RGB) error {
	return p.store.WriteAll(color)
}
