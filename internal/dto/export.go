package dto

type ExportFile struct {
	File    string `json:"file"`
	Records int    `json:"records"`
}

type ExportResponse struct {
	Path         string            `json:"path"`
	Files        []ExportFile      `json:"files"`
	FileContents map[string]string `json:"fileContents"`
}
