package menu

// Default returns the built-in restaurant catalog.
func Default() *Catalog {
	return MustNew([]Category{
		{
			Key:  "makanan",
			Name: "Makanan",
			Items: []Item{
				{ID: "M001", Name: "Nasi Goreng Spesial", Price: 25000, Description: "Nasi goreng dengan telur, ayam, dan kerupuk"},
				{ID: "M002", Name: "Mie Ayam Bakso", Price: 20000, Description: "Mie ayam dengan bakso sapi"},
				{ID: "M003", Name: "Ayam Geprek", Price: 18000, Description: "Ayam goreng geprek dengan sambal bawang"},
			},
		},
		{
			Key:  "minuman",
			Name: "Minuman",
			Items: []Item{
				{ID: "D001", Name: "Es Teh Manis", Price: 8000, Description: "Teh manis dingin"},
				{ID: "D002", Name: "Jus Alpukat", Price: 15000, Description: "Jus alpukat segar dengan susu coklat"},
				{ID: "D003", Name: "Kopi Latte", Price: 12000, Description: "Espresso dengan susu"},
			},
		},
		{
			Key:  "dessert",
			Name: "Dessert",
			Items: []Item{
				{ID: "S001", Name: "Es Krim Vanilla", Price: 12000, Description: "Dua scoop es krim vanilla"},
				{ID: "S002", Name: "Pudding Coklat", Price: 10000, Description: "Pudding coklat dengan vla"},
			},
		},
	})
}
