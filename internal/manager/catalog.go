package manager

import (
	"path/filepath"

	"github.com/kebairia/snapvault/internal/snapshot"
)

// CatalogFilename is the persisted catalog index at the destination root.
// It carries the authoritative catalog records (including the metadata
// checksums, which never appear inside a snapshot's own metadata file).
const CatalogFilename = "catalog.json"

// catalogFile is the on-disk shape of the catalog index.
type catalogFile struct {
	Backups []*snapshot.Metadata `json:"backups"`
}

func (m *Manager) catalogPath() string {
	return filepath.Join(m.cfg.Destination, CatalogFilename)
}

// LoadCatalog rehydrates the in-memory catalog from the destination's
// index file, if one exists. A missing index is not an error: the catalog
// simply starts empty.
func (m *Manager) LoadCatalog() error {
	path := m.catalogPath()
	if !m.fs.FileExists(path) {
		return nil
	}

	var stored catalogFile
	if err := m.fs.ReadJSON(path, &stored); err != nil {
		return err
	}

	m.catalogMu.Lock()
	defer m.catalogMu.Unlock()
	for _, meta := range stored.Backups {
		m.catalog[meta.ID] = meta
	}
	m.log.Debug("catalog loaded", "entries", len(stored.Backups))
	return nil
}

// persistCatalog writes the catalog index. Writers are serialized and
// the index is replaced atomically, so parallel jobs can never leave a
// partially written file behind. Best effort: the snapshot on disk is
// already complete, so a failed index write costs rehydration, not data.
func (m *Manager) persistCatalog() {
	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	m.catalogMu.RLock()
	stored := catalogFile{Backups: make([]*snapshot.Metadata, 0, len(m.catalog))}
	for _, meta := range m.catalog {
		stored.Backups = append(stored.Backups, meta)
	}
	m.catalogMu.RUnlock()

	if err := m.fs.CreateDirectory(m.cfg.Destination); err != nil {
		m.log.Warn("persist catalog", "error", err.Error())
		return
	}
	if err := m.fs.WriteJSONAtomic(m.catalogPath(), stored); err != nil {
		m.log.Warn("persist catalog", "error", err.Error())
	}
}
