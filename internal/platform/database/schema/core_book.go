package schema

// CoreBookTable represents the 'core.book' table
type CoreBookTable struct {
	Table        string
	ID           string
	OwnerID      string
	Title        string
	Slug         string
	Description  string
	CoverURL     string
	PDFURL       string
	Authors      string
	Categories   string
	Genres       string
	Tags         string
	Values       string
	ReadingLevel string
	CreatedAt    string
	UpdatedAt    string
	DeletedAt    string
}

// CoreBook is the schema definition for core.book
var CoreBook = CoreBookTable{
	Table:        "core.book",
	ID:           "id",
	OwnerID:      "ownerid",
	Title:        "title",
	Slug:         "slug",
	Description:  "description",
	CoverURL:     "coverurl",
	PDFURL:       "pdfurl",
	Authors:      "authors",
	Categories:   "categories",
	Genres:       "genres",
	Tags:         "tags",
	Values:       "bookvalues",
	ReadingLevel: "readinglevel",
	CreatedAt:    "createdat",
	UpdatedAt:    "updatedat",
	DeletedAt:    "deletedat",
}

func (t CoreBookTable) Columns() []string {
	return []string{
		t.ID, t.OwnerID, t.Title, t.Slug, t.Description, t.CoverURL, t.PDFURL,
		t.Authors, t.Categories, t.Genres, t.Tags, t.Values, t.ReadingLevel,
		t.CreatedAt, t.UpdatedAt, t.DeletedAt,
	}
}
