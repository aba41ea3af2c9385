// cmd/seed imports a card list into the cards table.
//
// The input is a JSON document of the form {"black": ["..."], "white": ["..."]}. A black card's
// blanks are written as "_". Cards already present are skipped.
package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/jason-s-yu/cah/internal/config"
	"github.com/jason-s-yu/cah/internal/database"
	"github.com/jason-s-yu/cah/internal/models"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

type cardFile struct {
	Black []string `json:"black"`
	White []string `json:"white"`
}

func (f cardFile) cards() []*models.Card {
	cards := make([]*models.Card, 0, len(f.Black)+len(f.White))
	for _, text := range f.Black {
		cards = append(cards, models.NewCard(text, true))
	}
	for _, text := range f.White {
		cards = append(cards, models.NewCard(text, false))
	}
	return cards
}

func main() {
	if len(os.Args) != 2 {
		logrus.Fatalf("usage: %s cards.json", os.Args[0])
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		logrus.Fatalf("read cards: %v", err)
	}
	var f cardFile
	if err := json.Unmarshal(data, &f); err != nil {
		logrus.Fatalf("parse cards: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	pool, err := database.ConnectDB(ctx, cfg.ConnString())
	if err != nil {
		logrus.Fatalf("database: %v", err)
	}
	defer pool.Close()
	repo := database.NewRepository(pool)
	if err := repo.Migrate(ctx); err != nil {
		logrus.Fatalf("database: %v", err)
	}

	n, err := repo.InsertCards(ctx, f.cards())
	if err != nil {
		logrus.Fatalf("insert cards: %v", err)
	}
	logrus.WithFields(logrus.Fields{
		"black":    len(f.Black),
		"white":    len(f.White),
		"inserted": n,
	}).Info("cards imported")
}
