package catalog

import "github.com/shopspring/decimal"

// Sample returns the reference data set: three neighbourhood stores that share
// the same five-product grocery assortment.
func Sample() *Catalog {
	stores := []Store{
		{
			ID:           "1",
			Name:         "Hızlı Market",
			Description:  "Günlük ihtiyaçlarınız için süper hızlı market",
			Category:     "Market",
			Address:      "İstanbul, Kadıköy",
			DeliveryTime: "15-20 dk",
			Rating:       4.7,
			MinimumOrder: decimal.NewFromInt(50),
		},
		{
			ID:           "2",
			Name:         "Sıcak Fırın",
			Description:  "Taze fırın ürünleri",
			Category:     "Fırın",
			Address:      "İstanbul, Beşiktaş",
			DeliveryTime: "20-30 dk",
			Rating:       4.5,
			MinimumOrder: decimal.NewFromInt(40),
		},
		{
			ID:           "3",
			Name:         "Organik Şarküteri",
			Description:  "En kaliteli şarküteri ürünleri",
			Category:     "Şarküteri",
			Address:      "İstanbul, Şişli",
			DeliveryTime: "25-35 dk",
			Rating:       4.8,
			MinimumOrder: decimal.NewFromInt(90),
		},
	}

	var products []Product
	for _, s := range stores {
		products = append(products, groceries(s.ID)...)
	}
	return New(stores, products)
}

func groceries(storeID string) []Product {
	return []Product{
		{ID: "1", StoreID: storeID, Name: "Su (1L)", Description: "Doğal içme suyu", Price: decimal.RequireFromString("5.90"), Category: "İçecek"},
		{ID: "2", StoreID: storeID, Name: "Ekmek", Description: "Taze günlük ekmek", Price: decimal.RequireFromString("7.50"), Category: "Fırın"},
		{ID: "3", StoreID: storeID, Name: "Süt (1L)", Description: "Günlük taze süt", Price: decimal.RequireFromString("19.90"), Category: "Süt Ürünleri"},
		{ID: "4", StoreID: storeID, Name: "Yumurta (10'lu)", Description: "Organik yumurta", Price: decimal.RequireFromString("45.90"), Category: "Kahvaltılık"},
		{ID: "5", StoreID: storeID, Name: "Elma (1kg)", Description: "Taze kırmızı elma", Price: decimal.RequireFromString("24.90"), Category: "Meyve"},
	}
}
