package category

// DefaultCategories is the built-in category list. Some extensions appear in
// more than one category (".pdf", ".xlsx", ".pptx"); the earlier category
// wins, so keep the order stable.
var DefaultCategories = []Category{
	{Name: "Images", Extensions: []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".webp"}},
	{Name: "Documents", Extensions: []string{".pdf", ".docx", ".doc", ".txt", ".xlsx", ".pptx", ".odt"}},
	{Name: "Code", Extensions: []string{".py", ".java", ".cpp", ".c", ".h", ".js", ".html", ".css", ".ts", ".go", ".rb"}},
	{Name: "Videos", Extensions: []string{".mp4", ".mkv", ".avi", ".mov", ".wmv", ".flv"}},
	{Name: "Audio", Extensions: []string{".mp3", ".wav", ".aac", ".ogg", ".flac"}},
	{Name: "Archives", Extensions: []string{".zip", ".rar", ".tar", ".gz", ".7z"}},
	{Name: "PDFs", Extensions: []string{".pdf"}},
	{Name: "Spreadsheets", Extensions: []string{".xls", ".xlsx", ".csv"}},
	{Name: "Presentations", Extensions: []string{".ppt", ".pptx"}},
}

var defaultTable = MustTable(DefaultCategories)

// DefaultTable returns the built-in table.
func DefaultTable() *Table {
	return defaultTable
}
