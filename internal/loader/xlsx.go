package loader

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"

	"github.com/KaramelBytes/dataprobe/internal/dataset"
)

type xlsxLoader struct{}

func (xlsxLoader) CanLoad(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

func (xlsxLoader) Load(p string, opt Options) (*dataset.Dataset, error) {
	records, err := ReadSheet(p, opt.SheetName, opt.SheetIndex)
	if err != nil {
		return nil, err
	}
	return FromRecords(records, opt)
}

// FromRecords builds a dataset from string records whose first row is the
// header. Short rows are padded with missing cells.
func FromRecords(records [][]string, opt Options) (*dataset.Dataset, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return dataset.New()
	}
	width := len(records[0])
	rows := records
	if opt.MaxRows > 0 && len(rows) > opt.MaxRows+1 {
		rows = rows[:opt.MaxRows+1]
	}
	padded := make([][]string, len(rows))
	for i, r := range rows {
		row := make([]string, width)
		copy(row, r)
		padded[i] = row
	}
	if len(padded) == 1 {
		cols := make([]*dataset.Column, width)
		for i, name := range padded[0] {
			cols[i] = dataset.Strings(name)
		}
		return dataset.New(cols...)
	}
	return fromFrame(dataframe.LoadRecords(padded, frameOptions(opt)...), opt)
}

type workbookXML struct {
	Sheets []struct {
		Name    string `xml:"name,attr"`
		SheetID int    `xml:"sheetId,attr"`
		RID     string `xml:"id,attr"`
	} `xml:"sheets>sheet"`
}

type relsXML struct {
	Items []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

type sstXML struct {
	Items []struct {
		T    string `xml:"t"`
		Runs []struct {
			T string `xml:"t"`
		} `xml:"r"`
	} `xml:"si"`
}

// ReadSheet returns every row of one worksheet as strings. Sheets are picked
// by case-insensitive name, else by 1-based sheetId, else the first sheet.
func ReadSheet(p, sheetName string, sheetIndex int) ([][]string, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer zr.Close()

	var wb workbookXML
	if err := decodeZipXML(&zr.Reader, "xl/workbook.xml", &wb); err != nil {
		return nil, err
	}
	var rels relsXML
	if err := decodeZipXML(&zr.Reader, "xl/_rels/workbook.xml.rels", &rels); err != nil {
		return nil, err
	}
	targets := make(map[string]string, len(rels.Items))
	for _, r := range rels.Items {
		targets[r.ID] = r.Target
	}

	target := ""
	if sheetName != "" {
		var names []string
		for _, s := range wb.Sheets {
			names = append(names, s.Name)
			if strings.EqualFold(s.Name, sheetName) && targets[s.RID] != "" {
				target = normalizeRelPath(targets[s.RID])
			}
		}
		if target == "" {
			return nil, fmt.Errorf("sheet '%s' not found in workbook '%s'.\nAvailable sheets: %s",
				sheetName, filepath.Base(p), strings.Join(names, ", "))
		}
	} else {
		idx := sheetIndex
		if idx <= 0 {
			idx = 1
		}
		for _, s := range wb.Sheets {
			if s.SheetID == idx && targets[s.RID] != "" {
				target = normalizeRelPath(targets[s.RID])
				break
			}
		}
		if target == "" {
			target = path.Join("xl", "worksheets", fmt.Sprintf("sheet%d.xml", idx))
		}
	}

	var shared sstXML
	if err := decodeZipXML(&zr.Reader, "xl/sharedStrings.xml", &shared); err != nil {
		return nil, err
	}
	strs := make([]string, len(shared.Items))
	for i, si := range shared.Items {
		var b strings.Builder
		b.WriteString(si.T)
		for _, r := range si.Runs {
			b.WriteString(r.T)
		}
		strs[i] = b.String()
	}

	f := findZipFile(&zr.Reader, target)
	if f == nil {
		return nil, fmt.Errorf("xlsx: worksheet %s missing", target)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open worksheet: %w", err)
	}
	defer rc.Close()
	return readRows(xml.NewDecoder(rc), strs)
}

func findZipFile(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// decodeZipXML unmarshals a zip entry into v. A missing entry leaves v empty.
func decodeZipXML(zr *zip.Reader, name string, v any) error {
	f := findZipFile(zr, name)
	if f == nil {
		return nil
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()
	if err := xml.NewDecoder(rc).Decode(v); err != nil && err != io.EOF {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

type cellXML struct {
	Ref    string `xml:"r,attr"`
	Type   string `xml:"t,attr"`
	V      string `xml:"v"`
	Inline struct {
		T string `xml:"t"`
	} `xml:"is"`
}

// readRows streams <row> elements, placing each cell by its column reference.
func readRows(dec *xml.Decoder, shared []string) ([][]string, error) {
	var out [][]string
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read worksheet: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "row" {
			continue
		}
		var row struct {
			Cells []cellXML `xml:"c"`
		}
		if err := dec.DecodeElement(&row, &se); err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		var cur []string
		for i, c := range row.Cells {
			idx := i
			if c.Ref != "" {
				idx = colIndexFromRef(c.Ref)
			}
			if idx < 0 {
				continue
			}
			for len(cur) <= idx {
				cur = append(cur, "")
			}
			cur[idx] = cellText(c, shared)
		}
		out = append(out, cur)
	}
}

func cellText(c cellXML, shared []string) string {
	switch c.Type {
	case "s":
		i, err := strconv.Atoi(strings.TrimSpace(c.V))
		if err != nil || i < 0 || i >= len(shared) {
			return ""
		}
		return shared[i]
	case "inlineStr":
		return c.Inline.T
	case "b":
		if c.V == "1" {
			return "true"
		}
		return "false"
	}
	return c.V
}

// colIndexFromRef maps a cell reference like "C12" to its 0-based column.
func colIndexFromRef(ref string) int {
	idx := 0
	for _, ch := range strings.ToUpper(ref) {
		if ch < 'A' || ch > 'Z' {
			break
		}
		idx = idx*26 + int(ch-'A'+1)
	}
	return idx - 1
}

// normalizeRelPath converts a relationship target to its zip entry name.
// Targets may carry a leading slash and may or may not include "xl/".
func normalizeRelPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return path.Join("xl", rel)
}
