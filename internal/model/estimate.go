package model

import "math"

// PurchaseEstimate holds the results of a sheet purchasing calculation,
// used by the quotation layer before a full optimization is run.
type PurchaseEstimate struct {
	TotalPartArea     float64 `json:"total_part_area"`     // total area of all parts incl. kerf (sq mm)
	TotalSquareFeet   float64 `json:"total_square_feet"`   // same area in square feet, for laminate pricing
	SheetArea         float64 `json:"sheet_area"`          // area of one stock sheet (sq mm)
	SheetsNeededExact float64 `json:"sheets_needed_exact"` // exact fractional number of sheets
	SheetsNeededMin   int     `json:"sheets_needed_min"`   // minimum sheets (ceiling of exact)
	SheetsWithWaste   int     `json:"sheets_with_waste"`   // recommended sheets including waste factor
	WastePercent      float64 `json:"waste_percent"`       // waste factor applied (e.g. 15 for 15%)
	EstimatedCost     float64 `json:"estimated_cost"`      // total cost if pricing available
	PricePerSheet     float64 `json:"price_per_sheet"`     // price used for estimation
	KerfWidth         float64 `json:"kerf_width"`          // kerf width used in calculation
}

// sqmmPerSquareFoot converts square millimeters to square feet
// (12" x 12" = 144 sq in = 92903.04 sq mm).
const sqmmPerSquareFoot = 92903.04

// EstimatePurchase computes how many stock sheets to buy for a cut list.
// It is an area-based lower bound plus a waste factor, not a packing: the
// optimizer's Totals give the exact answer once a layout exists.
func EstimatePurchase(parts []Part, sheet SheetSpec, wastePercent, pricePerSheet float64) PurchaseEstimate {
	var totalPartArea float64
	for _, p := range parts {
		partW := p.Width + sheet.Kerf
		partH := p.Height + sheet.Kerf
		totalPartArea += partW * partH * float64(p.Quantity)
	}

	est := PurchaseEstimate{
		TotalPartArea:   totalPartArea,
		TotalSquareFeet: totalPartArea / sqmmPerSquareFoot,
		WastePercent:    wastePercent,
		PricePerSheet:   pricePerSheet,
		KerfWidth:       sheet.Kerf,
	}

	sheetArea := sheet.Width * sheet.Height
	if sheetArea <= 0 {
		return est
	}
	est.SheetArea = sheetArea
	est.SheetsNeededExact = totalPartArea / sheetArea
	est.SheetsNeededMin = int(math.Ceil(est.SheetsNeededExact))

	wasteFactor := 1.0 + wastePercent/100.0
	est.SheetsWithWaste = int(math.Ceil(est.SheetsNeededExact * wasteFactor))
	if est.SheetsWithWaste < est.SheetsNeededMin {
		est.SheetsWithWaste = est.SheetsNeededMin
	}
	est.EstimatedCost = float64(est.SheetsWithWaste) * pricePerSheet

	return est
}
