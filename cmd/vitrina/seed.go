package main

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/erazemk/vitrina/internal/catalog"
	"github.com/erazemk/vitrina/internal/model"
	"github.com/erazemk/vitrina/internal/store"
)

type sampleProduct struct {
	base, brand, description string
	// original and clearance prices; zero means not in clearance
	original, clearance int64
}

var sampleProducts = map[model.Sector][]sampleProduct{
	model.SectorAutomotive: {
		{"Parafuso M8 x 50mm", "3M", "Parafuso de aço inoxidável M8 com 50mm de comprimento.", 0, 0},
		{"Porca Sextavada M8", "3M", "Porca sextavada em aço galvanizado, rosca métrica M8.", 0, 0},
		{"Arruela Lisa M8", "Vonder", "Arruela lisa em aço carbono, diâmetro interno 8mm.", 0, 0},
		{"Fita Isolante 19mm x 10m", "3M", "Fita isolante de PVC, cor preta.", 0, 0},
		{"Abraçadeira Nylon 200mm", "Tramontina", "Abraçadeira de nylon branca para organização de cabos.", 0, 0},
		{"Eletrodo E6013 2.5mm", "Vonder", "Eletrodo revestido para solda, tipo E6013.", 0, 0},
		{"Disco Corte Inox 115mm", "Makita", "Disco de corte para inox, espessura 1mm.", 2490, 1990},
		{"Graxa Multiuso 500g", "Vonder", "Graxa multiuso de lítio para lubrificação geral.", 0, 0},
	},
	model.SectorRealEstate: {
		{"Bucha S8", "Fischer", "Bucha de nylon S8 para fixação em alvenaria.", 0, 0},
		{"Silicone Acético Transparente", "3M", "Silicone acético, tubo de 280ml.", 0, 0},
		{"Fita Dupla Face 12mm x 2m", "3M", "Fita adesiva dupla face de espuma.", 0, 0},
		{"Broca Aço Rápido 6mm", "Bosch", "Broca em aço rápido HSS para furação em metais.", 0, 0},
		{"Serra Copo 32mm", "Bosch", "Serra copo bimetálica para madeira e metal.", 4590, 3490},
		{"Lixa Ferro Grão 80", "3M", "Lixa para ferro e metais, folha 230x280mm.", 0, 0},
	},
}

// sampleWhatsAppNumber is stored only when no number is configured.
const sampleWhatsAppNumber = "5511999999999"

// seedSampleData adds the sample products to every sector that has none yet.
// Prices are in cents.
func seedSampleData(ctx context.Context, database *sql.DB, products catalog.Store) error {
	for _, sector := range model.Sectors {
		n, err := products.CountProducts(ctx, sector)
		if err != nil {
			return err
		}
		if n > 0 {
			slog.Info("sector already has products, not seeding", "sector", sector, "count", n)
			continue
		}

		for _, sp := range sampleProducts[sector] {
			p, err := products.CreateProduct(ctx, &model.Product{
				Name:        model.JoinName(sp.base, sp.brand, ""),
				Description: sp.description,
				Sector:      sector,
			})
			if err != nil {
				return err
			}
			if sp.original == 0 {
				continue
			}
			original := decimal.New(sp.original, -2)
			clearance := decimal.New(sp.clearance, -2)
			if err := products.SetClearancePrices(ctx, p.ID, original, clearance); err != nil {
				return err
			}
			if err := products.SetClearance(ctx, p.ID, true); err != nil {
				return err
			}
		}
		slog.Info("seeded sample products", "sector", sector, "count", len(sampleProducts[sector]))
	}

	number, err := store.GetWhatsAppNumber(ctx, database)
	if err != nil {
		return err
	}
	if number == "" {
		if err := store.SetWhatsAppNumber(ctx, database, sampleWhatsAppNumber); err != nil {
			return err
		}
		slog.Info("sample whatsapp number configured, change it in the admin settings", "number", sampleWhatsAppNumber)
	}
	return nil
}
