package reports

import (
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/production_backend/models"
	"github.com/xuri/excelize/v2"
)

const (
	floorSheetName    = "Floors"
	transferSheetName = "Transfers"
)

var floorHeadings = []string{
	"ArticleNo", "Floor", "Received", "Completed", "Transferred", "Remaining",
	"M1", "M2", "M3", "M4", "M1Transferred", "M2Transferred", "RepairReceived", "RepairStatus",
}

var transferHeadings = []string{
	"OccurredAt", "ArticleNo", "Kind", "FromFloor", "ToFloor", "Quantity", "Actor", "Remarks", "CorrelationId",
}

// TransferLedgerWorkbook builds an order's floor snapshot and transfer ledger as two sheets.
func TransferLedgerWorkbook(order *models.ProductionOrder, events []models.TransferEvent) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", floorSheetName); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(transferSheetName); err != nil {
		return nil, err
	}
	if err := writeHeadings(f, floorSheetName, floorHeadings); err != nil {
		return nil, err
	}
	if err := writeHeadings(f, transferSheetName, transferHeadings); err != nil {
		return nil, err
	}

	articleNos := make(map[int]string, len(order.Articles))
	rowNo := 2
	for _, a := range order.Articles {
		articleNos[a.ID] = a.ArticleNo
		for _, q := range a.FloorQuantities {
			values := []any{
				a.ArticleNo, string(q.Floor), q.Received, q.Completed, q.Transferred, q.Remaining,
				q.M1Quantity, q.M2Quantity, q.M3Quantity, q.M4Quantity, q.M1Transferred, q.M2Transferred,
				q.RepairReceived, string(q.RepairStatus),
			}
			if err := writeRow(f, floorSheetName, rowNo, values); err != nil {
				return nil, err
			}
			rowNo++
		}
	}

	rowNo = 2
	for _, e := range events {
		articleNo, ok := articleNos[e.ArticleId]
		if !ok {
			// article deleted after the fact; ledger rows outlive it
			articleNo = fmt.Sprintf("#%d", e.ArticleId)
		}
		values := []any{
			e.OccurredAt.UTC().Format(time.RFC3339), articleNo, string(e.Kind), string(e.FromFloor), string(e.ToFloor),
			e.Quantity, e.Actor, e.Remarks, e.CorrelationId,
		}
		if err := writeRow(f, transferSheetName, rowNo, values); err != nil {
			return nil, err
		}
		rowNo++
	}
	return f, nil
}

func writeHeadings(f *excelize.File, sheet string, headings []string) error {
	values := make([]any, len(headings))
	for i, h := range headings {
		values[i] = h
	}
	return writeRow(f, sheet, 1, values)
}

func writeRow(f *excelize.File, sheet string, rowNo int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNo)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
