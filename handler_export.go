package main

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/xuri/excelize/v2"

	"motoshop/internal/filter"
)

func handleExportServices(w http.ResponseWriter, r *http.Request) {
	rows, err := db.Query("SELECT " + serviceCols + " FROM services WHERE deleted=0 ORDER BY name")
	if err != nil { jsonErr(w, err.Error(), 500); return }
	defer rows.Close()

	var items []Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil { jsonErr(w, err.Error(), 500); return }
		items = append(items, s)
	}
	items = filter.Services(items, listCriteria(r))

	headers := []string{"Code", "Name", "Category", "Price", "Duration (min)", "Active"}
	var data [][]string
	for _, s := range items {
		data = append(data, []string{
			s.Code, s.Name, s.Category, fmt.Sprintf("%.2f", s.Price),
			strconv.Itoa(s.DurationMin), strconv.FormatBool(s.Active),
		})
	}

	logAudit(db, getUsername(r), AuditActionExport, "services", "export", fmt.Sprintf("Exported %d services", len(data)))
	writeExport(w, r, "Services", "services", headers, data)
}

func handleExportParts(w http.ResponseWriter, r *http.Request) {
	rows, err := db.Query("SELECT " + partCols + " FROM parts WHERE deleted=0 ORDER BY name")
	if err != nil { jsonErr(w, err.Error(), 500); return }
	defer rows.Close()

	var items []Part
	for rows.Next() {
		p, err := scanPart(rows)
		if err != nil { jsonErr(w, err.Error(), 500); return }
		items = append(items, p)
	}
	items = filter.Parts(items, listCriteria(r))

	headers := []string{"Code", "Name", "Category", "Price", "Stock", "Min Stock", "Stock Status", "Active"}
	var data [][]string
	for _, p := range items {
		data = append(data, []string{
			p.Code, p.Name, p.Category, fmt.Sprintf("%.2f", p.Price),
			strconv.Itoa(p.Stock), strconv.Itoa(p.MinStock), p.StockBucket, strconv.FormatBool(p.Active),
		})
	}

	logAudit(db, getUsername(r), AuditActionExport, "parts", "export", fmt.Sprintf("Exported %d parts", len(data)))
	writeExport(w, r, "Parts", "parts", headers, data)
}

func handleExportMovements(w http.ResponseWriter, r *http.Request) {
	query := `SELECT m.id,p.code,p.name,m.type,m.qty,m.stock_before,m.stock_after,COALESCE(m.reference,''),COALESCE(m.created_by,''),m.created_at
		FROM stock_movements m JOIN parts p ON p.id = m.part_id`
	var args []interface{}
	if v := r.URL.Query().Get("part_id"); v != "" {
		query += " WHERE m.part_id=?"
		args = append(args, v)
	}
	query += " ORDER BY m.created_at DESC, m.id DESC LIMIT 10000"

	rows, err := db.Query(query, args...)
	if err != nil { jsonErr(w, err.Error(), 500); return }
	defer rows.Close()

	headers := []string{"ID", "Part Code", "Part Name", "Type", "Qty", "Stock Before", "Stock After", "Reference", "By", "At"}
	var data [][]string
	for rows.Next() {
		var id, qty, before, after int
		var code, name, mtype, reference, createdBy, createdAt string
		rows.Scan(&id, &code, &name, &mtype, &qty, &before, &after, &reference, &createdBy, &createdAt)
		data = append(data, []string{
			strconv.Itoa(id), code, name, mtype, strconv.Itoa(qty),
			strconv.Itoa(before), strconv.Itoa(after), reference, createdBy, createdAt,
		})
	}

	logAudit(db, getUsername(r), AuditActionExport, "inventory", "export", fmt.Sprintf("Exported %d movements", len(data)))
	writeExport(w, r, "Movements", "movements", headers, data)
}

// writeExport picks CSV or Excel from the format query param.
func writeExport(w http.ResponseWriter, r *http.Request, sheetName, baseName string, headers []string, data [][]string) {
	if r.URL.Query().Get("format") == "xlsx" {
		exportExcel(w, sheetName, headers, data)
	} else {
		exportCSV(w, baseName+".csv", headers, data)
	}
}

// exportCSV writes data as a CSV attachment.
func exportCSV(w http.ResponseWriter, filename string, headers []string, data [][]string) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(headers); err != nil {
		http.Error(w, "Failed to write CSV headers", 500)
		return
	}
	for _, row := range data {
		if err := writer.Write(row); err != nil {
			http.Error(w, "Failed to write CSV row", 500)
			return
		}
	}
}

// exportExcel writes data to Excel format.
func exportExcel(w http.ResponseWriter, sheetName string, headers []string, data [][]string) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		http.Error(w, "Failed to create Excel sheet", 500)
		return
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		http.Error(w, "Failed to create header style", 500)
		return
	}

	for i, header := range headers {
		cell := fmt.Sprintf("%s1", string(rune('A'+i)))
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, row := range data {
		for colIdx, value := range row {
			cell := fmt.Sprintf("%s%d", string(rune('A'+colIdx)), rowIdx+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	for i := range headers {
		col := string(rune('A' + i))
		f.SetColWidth(sheetName, col, col, 15)
	}

	if sheetName != "Sheet1" {
		f.DeleteSheet("Sheet1")
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", sheetName))
	f.Write(w)
}
