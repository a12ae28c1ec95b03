package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// snapshot is the on-disk shape of the registry. Only tenant records and
// ledgers persist; session state and live counts are rebuilt at load time.
type snapshot struct {
	Active  string         `yaml:"active,omitempty"`
	Tenants []tenantRecord `yaml:"tenants"`
}

type tenantRecord struct {
	ID             string           `yaml:"id"`
	Name           string           `yaml:"name"`
	Description    string           `yaml:"description,omitempty"`
	CollectionName string           `yaml:"collection"`
	CreatedAt      time.Time        `yaml:"created_at"`
	Documents      []documentRecord `yaml:"documents,omitempty"`
}

type documentRecord struct {
	SourceType  string    `yaml:"source_type"`
	Filename    string    `yaml:"filename,omitempty"`
	URL         string    `yaml:"url,omitempty"`
	Title       string    `yaml:"title,omitempty"`
	Chunks      int       `yaml:"chunks"`
	Size        int64     `yaml:"size,omitempty"`
	FromSitemap bool      `yaml:"from_sitemap,omitempty"`
	DateAdded   time.Time `yaml:"date_added"`
	DateUpdated time.Time `yaml:"date_updated,omitempty"`
}

// SaveFile writes the registry's tenant records to path.
func (r *Registry) SaveFile(path string) error {
	r.mu.RLock()
	snap := snapshot{Active: r.active}
	for _, id := range r.order {
		t := r.tenants[id]
		rec := tenantRecord{
			ID:             t.ID,
			Name:           t.Name,
			Description:    t.Description,
			CollectionName: t.CollectionName,
			CreatedAt:      t.CreatedAt,
		}
		for _, d := range t.Documents() {
			rec.Documents = append(rec.Documents, documentRecord{
				SourceType:  d.SourceType,
				Filename:    d.Filename,
				URL:         d.URL,
				Title:       d.Title,
				Chunks:      d.Chunks,
				Size:        d.Size,
				FromSitemap: d.FromSitemap,
				DateAdded:   d.DateAdded,
				DateUpdated: d.DateUpdated,
			})
		}
		snap.Tenants = append(snap.Tenants, rec)
	}
	r.mu.RUnlock()

	data, err := yaml.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create registry directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadFile restores tenant records from path, reattaching each tenant to
// its index collection. A missing file is not an error: the registry just
// starts empty.
func (r *Registry) LoadFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read registry %s: %w", path, err)
	}

	var snap snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parse registry %s: %w", path, err)
	}

	for _, rec := range snap.Tenants {
		t := &Tenant{
			ID:             rec.ID,
			Name:           rec.Name,
			Description:    rec.Description,
			CollectionName: rec.CollectionName,
			CreatedAt:      rec.CreatedAt,
			store:          r.provider.OpenStore(ctx, rec.CollectionName),
		}
		for _, d := range rec.Documents {
			t.documents = append(t.documents, DocumentSummary{
				SourceType:  d.SourceType,
				Filename:    d.Filename,
				URL:         d.URL,
				Title:       d.Title,
				Chunks:      d.Chunks,
				Size:        d.Size,
				FromSitemap: d.FromSitemap,
				DateAdded:   d.DateAdded,
				DateUpdated: d.DateUpdated,
			})
		}

		r.mu.Lock()
		if _, exists := r.tenants[rec.ID]; !exists {
			r.tenants[rec.ID] = t
			r.order = append(r.order, rec.ID)
		}
		r.mu.Unlock()
	}

	if snap.Active != "" {
		r.mu.Lock()
		if _, ok := r.tenants[snap.Active]; ok {
			r.active = snap.Active
		}
		r.mu.Unlock()
	}

	return nil
}
