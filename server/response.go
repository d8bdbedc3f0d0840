package server

import (
	"kastelo.dev/yield"
)

type response struct {
	RunID    string           `json:"run_id"`
	Columns  []string         `json:"columns"`
	Rows     [][]any          `json:"rows"`
	Summary  summary          `json:"summary"`
	Files    []fileReport     `json:"files"`
	Warnings []warningMessage `json:"warnings"`
}

type summary struct {
	Period           string         `json:"period"`
	Days             int            `json:"days"`
	Orders           int            `json:"orders"`
	Rows             int            `json:"rows"`
	TotalInputVolume float64        `json:"total_input_volume"`
	TotalGrossVolume float64        `json:"total_gross_volume"`
	FileName         string         `json:"file_name"`
	Warnings         map[string]int `json:"warnings"`
}

type fileReport struct {
	Name    string `json:"name"`
	Records int    `json:"records"`
	Error   string `json:"error,omitempty"`
}

type warningMessage struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func newResponse(res *yield.Result) response {
	r := response{
		RunID:   res.RunID,
		Columns: yield.Columns,
		Rows:    make([][]any, 0, len(res.Rows)),
		Summary: summary{
			Period:           res.Summary.Range(),
			Days:             res.Summary.Days,
			Orders:           res.Summary.Orders,
			Rows:             res.Summary.Rows,
			TotalInputVolume: res.Summary.TotalInputVolume,
			TotalGrossVolume: res.Summary.TotalGrossVolume,
			FileName:         res.Summary.FileName(),
			Warnings:         res.Summary.Warnings,
		},
		Files:    fileReports(res.Files),
		Warnings: make([]warningMessage, 0, len(res.Warnings)),
	}
	for _, row := range res.Rows {
		r.Rows = append(r.Rows, row.Values())
	}
	for _, w := range res.Warnings {
		r.Warnings = append(r.Warnings, warningMessage{Kind: yield.WarningKind(w), Message: w.Error()})
	}
	return r
}

func fileReports(files []yield.FileReport) []fileReport {
	res := make([]fileReport, 0, len(files))
	for _, f := range files {
		fr := fileReport{Name: f.Name, Records: f.Records}
		if f.Err != nil {
			fr.Error = f.Err.Error()
		}
		res = append(res, fr)
	}
	return res
}
