package schema

// CoreBookPageTable represents the 'core.bookpage' table
type CoreBookPageTable struct {
	Table           string
	BookID          string
	PageNumber      string
	Layout          string
	Title           string
	Text            string
	ImageURL        string
	Background      string
	Font            string
	Border          string
	Animation       string
	InteractiveGame string
	Items           string
}

// CoreBookPage is the schema definition for core.bookpage
var CoreBookPage = CoreBookPageTable{
	Table:           "core.bookpage",
	BookID:          "bookid",
	PageNumber:      "pagenumber",
	Layout:          "layout",
	Title:           "title",
	Text:            "body",
	ImageURL:        "imageurl",
	Background:      "background",
	Font:            "font",
	Border:          "border",
	Animation:       "animation",
	InteractiveGame: "interactivegame",
	Items:           "items",
}

func (t CoreBookPageTable) Columns() []string {
	return []string{
		t.BookID, t.PageNumber, t.Layout, t.Title, t.Text, t.ImageURL,
		t.Background, t.Font, t.Border, t.Animation, t.InteractiveGame, t.Items,
	}
}
