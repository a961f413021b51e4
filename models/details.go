package models

// Article holds article-specific bibtex fields, 1:1 with a document.
type Article struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	DocumentID uint   `json:"document_id" gorm:"uniqueIndex;not null"`
	Author     string `json:"author,omitempty"`
	Journal    string `json:"journal,omitempty"`
	Year       string `json:"year,omitempty"`
	Volume     string `json:"volume,omitempty"`
	Number     string `json:"number,omitempty"`
	Pages      string `json:"pages,omitempty"`
	ISSN       string `json:"issn,omitempty" gorm:"column:issn"`
	Publisher  string `json:"publisher,omitempty"`
	Address    string `json:"address,omitempty"`
	Abstract   string `json:"abstract,omitempty" gorm:"type:text"`
	Keywords   string `json:"keywords,omitempty" gorm:"type:text"`
	Month      string `json:"month,omitempty"`
	Note       string `json:"note,omitempty"`
}

// TableName gives the explicit table name for GORM.
func (Article) TableName() string {
	return "article"
}

// Inproceedings holds conference-paper bibtex fields, 1:1 with a document.
type Inproceedings struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	DocumentID uint   `json:"document_id" gorm:"uniqueIndex;not null"`
	Author     string `json:"author,omitempty"`
	Booktitle  string `json:"booktitle,omitempty"`
	Year       string `json:"year,omitempty"`
	Series     string `json:"series,omitempty"`
	Pages      string `json:"pages,omitempty"`
	ArticleNo  string `json:"articleno,omitempty" gorm:"column:articleno"`
	NumPages   string `json:"numpages,omitempty" gorm:"column:numpages"`
	ISBN       string `json:"isbn,omitempty" gorm:"column:isbn"`
	Publisher  string `json:"publisher,omitempty"`
	Address    string `json:"address,omitempty"`
	Location   string `json:"location,omitempty"`
	Abstract   string `json:"abstract,omitempty" gorm:"type:text"`
	Keywords   string `json:"keywords,omitempty" gorm:"type:text"`
}

// TableName gives the explicit table name for GORM.
func (Inproceedings) TableName() string {
	return "inproceedings"
}

// Inbook holds book-chapter bibtex fields, 1:1 with a document.
type Inbook struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	DocumentID uint   `json:"document_id" gorm:"uniqueIndex;not null"`
	Author     string `json:"author,omitempty"`
	Booktitle  string `json:"booktitle,omitempty"`
	Year       string `json:"year,omitempty"`
	Chapter    string `json:"chapter,omitempty"`
	Pages      string `json:"pages,omitempty"`
	ISBN       string `json:"isbn,omitempty" gorm:"column:isbn"`
	Publisher  string `json:"publisher,omitempty"`
	Address    string `json:"address,omitempty"`
	Abstract   string `json:"abstract,omitempty" gorm:"type:text"`
	Keywords   string `json:"keywords,omitempty" gorm:"type:text"`
	Edition    string `json:"edition,omitempty"`
}

// TableName gives the explicit table name for GORM.
func (Inbook) TableName() string {
	return "inbook"
}
