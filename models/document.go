package models

// Entry types recognized at import time. Anything else is stored as
// EntryTypeOther without a type-detail row.
const (
	EntryTypeArticle       = "article"
	EntryTypeInproceedings = "inproceedings"
	EntryTypeInbook        = "inbook"
	EntryTypeOther         = "other"
)

// Document is a bibliographic record. Immutable after import except for
// DuplicateGroupID, which is set when a DOI collision is detected.
type Document struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	BibtexKey string `json:"bibtex_key" gorm:"uniqueIndex;not null"`
	EntryType string `json:"entry_type" gorm:"index;not null"`
	Title     string `json:"title"`
	DOI       string `json:"doi,omitempty" gorm:"column:doi;index"`
	URL       string `json:"url,omitempty"`

	SearchID         uint  `json:"search_id" gorm:"index;not null"`
	DuplicateGroupID *uint `json:"duplicate_group_id,omitempty" gorm:"index"`
}

// TableName gives the explicit table name for GORM.
func (Document) TableName() string {
	return "document"
}

// DocumentMeta is the common projection over the three type-detail tables:
// whichever detail row exists contributes author/year/abstract/keywords, and
// venue is the journal for articles or the booktitle otherwise. Computed once
// at the read boundary instead of repeating the three-way join per query.
type DocumentMeta struct {
	Author   string `json:"author,omitempty"`
	Year     string `json:"year,omitempty"`
	Abstract string `json:"abstract,omitempty"`
	Keywords string `json:"keywords,omitempty"`
	Venue    string `json:"venue,omitempty"`
}

// MetaFromArticle projects article fields into the common shape.
func MetaFromArticle(a *Article) DocumentMeta {
	return DocumentMeta{
		Author:   a.Author,
		Year:     a.Year,
		Abstract: a.Abstract,
		Keywords: a.Keywords,
		Venue:    a.Journal,
	}
}

// MetaFromInproceedings projects inproceedings fields into the common shape.
func MetaFromInproceedings(p *Inproceedings) DocumentMeta {
	return DocumentMeta{
		Author:   p.Author,
		Year:     p.Year,
		Abstract: p.Abstract,
		Keywords: p.Keywords,
		Venue:    p.Booktitle,
	}
}

// MetaFromInbook projects inbook fields into the common shape.
func MetaFromInbook(b *Inbook) DocumentMeta {
	return DocumentMeta{
		Author:   b.Author,
		Year:     b.Year,
		Abstract: b.Abstract,
		Keywords: b.Keywords,
		Venue:    b.Booktitle,
	}
}
