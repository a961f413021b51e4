package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nickng/bibtex"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lit-review/models"
)

// ImportStats summarizes one bibliography import run.
type ImportStats struct {
	FilesProcessed    int            `json:"files_processed"`
	EntriesAdded      int            `json:"entries_added"`
	DuplicatesSkipped int            `json:"duplicates_skipped"`
	ByType            map[string]int `json:"by_type"`
}

// ImportService turns bibtex files into search/document/review rows and
// links DOI collisions into duplicate groups.
type ImportService struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewImportService creates a new ImportService.
func NewImportService(db *gorm.DB, logger *zap.Logger) *ImportService {
	return &ImportService{DB: db, Logger: logger}
}

// FindSearchBySource returns the search with the given source name, or nil.
func (s *ImportService) FindSearchBySource(source string) (*models.Search, error) {
	var search models.Search
	err := s.DB.Where("source = ?", source).First(&search).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &search, nil
}

// CreateSearch records the provenance of one import batch.
func (s *ImportService) CreateSearch(source, details string) (*models.Search, error) {
	search := models.Search{Source: source, Details: details}
	if err := s.DB.Create(&search).Error; err != nil {
		return nil, err
	}
	return &search, nil
}

// ImportDirectory imports every .bib file in dir under the given search.
func (s *ImportService) ImportDirectory(dir string, searchID uint) (*ImportStats, error) {
	stats := &ImportStats{ByType: map[string]int{}}

	paths, err := filepath.Glob(filepath.Join(dir, "*.bib"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	for _, path := range paths {
		stats.FilesProcessed++
		if err := s.importFile(path, searchID, stats); err != nil {
			return stats, fmt.Errorf("importing %s: %w", filepath.Base(path), err)
		}
	}
	return stats, nil
}

func (s *ImportService) importFile(path string, searchID uint, stats *ImportStats) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	parsed, err := bibtex.Parse(f)
	if err != nil {
		return fmt.Errorf("parse failed: %w", err)
	}

	log := s.Logger.With(zap.String("file", filepath.Base(path)))
	for _, entry := range parsed.Entries {
		added, err := s.AddEntry(searchID, entry, stats)
		if err != nil {
			return err
		}
		if !added {
			log.Debug("Skipping duplicate bibtex key", zap.String("bibtex_key", entry.CiteName))
		}
	}
	return nil
}

// AddEntry inserts one bibtex entry: the document row, its type-detail row,
// a blank legacy review slot, and duplicate-group linkage for DOI
// collisions. Returns false when the bibtex key already exists (the entry is
// skipped and counted, never fatal).
func (s *ImportService) AddEntry(searchID uint, entry *bibtex.BibEntry, stats *ImportStats) (bool, error) {
	entryType := strings.ToLower(entry.Type)
	switch entryType {
	case models.EntryTypeArticle, models.EntryTypeInproceedings, models.EntryTypeInbook:
	default:
		entryType = models.EntryTypeOther
	}

	doc := models.Document{
		BibtexKey: entry.CiteName,
		EntryType: entryType,
		Title:     bibField(entry, "title"),
		DOI:       bibField(entry, "doi"),
		URL:       bibField(entry, "url"),
		SearchID:  searchID,
	}
	if err := s.DB.Create(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			stats.DuplicatesSkipped++
			return false, nil
		}
		return false, err
	}
	stats.EntriesAdded++
	stats.ByType[entryType]++

	if err := s.createDetail(doc.ID, entryType, entry); err != nil {
		return false, err
	}

	// Blank legacy review slot, filled in during the single-pass workflow.
	if err := s.DB.Create(&models.Review{DocumentID: doc.ID}).Error; err != nil {
		return false, err
	}

	if err := s.resolveDuplicateGroup(&doc); err != nil {
		return false, err
	}
	return true, nil
}

func (s *ImportService) createDetail(documentID uint, entryType string, entry *bibtex.BibEntry) error {
	switch entryType {
	case models.EntryTypeArticle:
		return s.DB.Create(&models.Article{
			DocumentID: documentID,
			Author:     bibField(entry, "author"),
			Journal:    bibField(entry, "journal"),
			Year:       bibField(entry, "year"),
			Volume:     bibField(entry, "volume"),
			Number:     bibField(entry, "number"),
			Pages:      bibField(entry, "pages"),
			ISSN:       bibField(entry, "issn"),
			Publisher:  bibField(entry, "publisher"),
			Address:    bibField(entry, "address"),
			Abstract:   bibField(entry, "abstract"),
			Keywords:   bibField(entry, "keywords"),
			Month:      bibField(entry, "month"),
			Note:       bibField(entry, "note"),
		}).Error
	case models.EntryTypeInproceedings:
		return s.DB.Create(&models.Inproceedings{
			DocumentID: documentID,
			Author:     bibField(entry, "author"),
			Booktitle:  bibField(entry, "booktitle"),
			Year:       bibField(entry, "year"),
			Series:     bibField(entry, "series"),
			Pages:      bibField(entry, "pages"),
			ArticleNo:  bibField(entry, "articleno"),
			NumPages:   bibField(entry, "numpages"),
			ISBN:       bibField(entry, "isbn"),
			Publisher:  bibField(entry, "publisher"),
			Address:    bibField(entry, "address"),
			Location:   bibField(entry, "location"),
			Abstract:   bibField(entry, "abstract"),
			Keywords:   bibField(entry, "keywords"),
		}).Error
	case models.EntryTypeInbook:
		return s.DB.Create(&models.Inbook{
			DocumentID: documentID,
			Author:     bibField(entry, "author"),
			Booktitle:  bibField(entry, "booktitle"),
			Year:       bibField(entry, "year"),
			Chapter:    bibField(entry, "chapter"),
			Pages:      bibField(entry, "pages"),
			ISBN:       bibField(entry, "isbn"),
			Publisher:  bibField(entry, "publisher"),
			Address:    bibField(entry, "address"),
			Abstract:   bibField(entry, "abstract"),
			Keywords:   bibField(entry, "keywords"),
			Edition:    bibField(entry, "edition"),
		}).Error
	}
	// Unknown entry types are counted but carry no detail row.
	return nil
}

// resolveDuplicateGroup links doc into a duplicate group when another
// document already carries the same DOI. Empty DOIs are never compared.
func (s *ImportService) resolveDuplicateGroup(doc *models.Document) error {
	if doc.DOI == "" {
		return nil
	}

	var siblings []models.Document
	if err := s.DB.Where("doi = ? AND id <> ?", doc.DOI, doc.ID).Find(&siblings).Error; err != nil {
		return err
	}
	if len(siblings) == 0 {
		return nil
	}

	groupID, err := s.groupForDOI(doc.DOI, siblings)
	if err != nil {
		return err
	}

	// Attach every document with this DOI; siblings imported before the
	// group existed pick up their id here.
	return s.DB.Model(&models.Document{}).
		Where("doi = ?", doc.DOI).
		Update("duplicate_group_id", groupID).Error
}

func (s *ImportService) groupForDOI(doi string, siblings []models.Document) (uint, error) {
	for _, sib := range siblings {
		if sib.DuplicateGroupID != nil {
			return *sib.DuplicateGroupID, nil
		}
	}

	group := models.DuplicateGroup{DOI: doi}
	err := s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&group).Error
	if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return 0, err
	}
	// A conflict means a concurrent insert won; re-read the group id either
	// way so both paths converge.
	var existing models.DuplicateGroup
	if err := s.DB.Where("doi = ?", doi).First(&existing).Error; err != nil {
		return 0, err
	}
	return existing.ID, nil
}

func bibField(entry *bibtex.BibEntry, name string) string {
	if v, ok := entry.Fields[name]; ok && v != nil {
		return strings.TrimSpace(v.String())
	}
	return ""
}
