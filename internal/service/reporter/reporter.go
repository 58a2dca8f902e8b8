package reporter

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"baliance.com/gooxml/document"
	"baliance.com/gooxml/schema/soo/wml"
	"github.com/ScrpTrx-Go/GoAnchorScan/internal/domain/contracts"
	"github.com/ScrpTrx-Go/GoAnchorScan/internal/domain/model"
	pkg "github.com/ScrpTrx-Go/GoAnchorScan/pkg/logger"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Summary"
	postsSheet   = "Posts"
)

// Reporter exports a scan result to a spreadsheet or a document, chosen by
// the file extension.
type Reporter struct {
	log       pkg.Logger
	blockName string
}

var _ contracts.ResultReporter = (*Reporter)(nil)

func NewReporter(log pkg.Logger, blockName string) *Reporter {
	return &Reporter{
		log:       log,
		blockName: blockName,
	}
}

func (r *Reporter) Write(path string, result model.ScanResult) error {
	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx":
		err = r.saveExcel(path, result)
	case ".docx":
		err = r.saveDoc(path, result)
	default:
		return fmt.Errorf("unsupported report format %q, use .xlsx or .docx", ext)
	}
	if err != nil {
		r.log.Error("Failed to save report", "path", path, "err", err)
		return err
	}
	r.log.Info("Report saved", "path", path, "posts", len(result.IDs))
	return nil
}

func (r *Reporter) summary(result model.ScanResult) [][2]interface{} {
	return [][2]interface{}{
		{"Block", r.blockName},
		{"Published after", result.Window.StartString()},
		{"Published before", result.Window.EndString()},
		{"Strategy", string(result.Strategy)},
		{"Total found", result.TotalFound},
		{"Returned", len(result.IDs)},
		{"Elapsed seconds", roundSeconds(result)},
	}
}

func roundSeconds(result model.ScanResult) float64 {
	v, _ := strconv.ParseFloat(fmt.Sprintf("%.2f", result.Elapsed.Seconds()), 64)
	return v
}

func (r *Reporter) saveExcel(path string, result model.ScanResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	for i, row := range r.summary(result) {
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+1), &[]interface{}{row[0], row[1]}); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(postsSheet); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(postsSheet)
	if err != nil {
		return err
	}
	if err := sw.SetRow("A1", []interface{}{"Post ID"}); err != nil {
		return err
	}
	for i, id := range result.IDs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, []interface{}{id}); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}

	return f.SaveAs(path)
}

func (r *Reporter) saveDoc(path string, result model.ScanResult) error {
	doc := document.New()

	para := doc.AddParagraph()
	para.SetStyle("Heading1")
	para.Properties().SetAlignment(wml.ST_JcCenter)
	run := para.AddRun()
	run.Properties().SetBold(true)
	run.AddText(fmt.Sprintf("Posts with %s blocks", r.blockName))

	for _, row := range r.summary(result) {
		doc.AddParagraph().AddRun().AddText(fmt.Sprintf("%v: %v", row[0], row[1]))
	}

	doc.AddParagraph().AddRun().AddText("----------")
	if len(result.IDs) == 0 {
		doc.AddParagraph().AddRun().AddText("No posts found.")
	}
	for _, id := range result.IDs {
		doc.AddParagraph().AddRun().AddText(strconv.FormatInt(id, 10))
	}

	return doc.SaveToFile(path)
}
