// Command seed populates the database with an admin account and a small
// sample catalog for local development. Safe to re-run: existing records are
// left in place.
package main

import (
	"log"
	"time"

	"bookreviews/internal/config"
	"bookreviews/internal/util"
	"bookreviews/pkg/auth"
	"bookreviews/pkg/domain"
	"bookreviews/pkg/store"
)

var sampleBooks = []domain.Book{
	{
		Title:         "The Midnight Library",
		Author:        "Matt Haig",
		Description:   "Between life and death there is a library, and within that library, the shelves go on forever. Every book provides a chance to try another life you could have lived.",
		CoverImage:    "https://images-na.ssl-images-amazon.com/images/S/compressed.photo.goodreads.com/books/1602190253i/52578297.jpg",
		ISBN:          "9780525559474",
		Genres:        []string{"Fiction", "Fantasy", "Contemporary"},
		PublishedDate: date(2020, 8, 13),
	},
	{
		Title:         "Project Hail Mary",
		Author:        "Andy Weir",
		Description:   "Ryland Grace is the sole survivor on a desperate, last-chance mission, and if he fails, humanity and the Earth itself will perish.",
		CoverImage:    "https://images-na.ssl-images-amazon.com/images/S/compressed.photo.goodreads.com/books/1597695864i/54493401.jpg",
		ISBN:          "9780593135204",
		Genres:        []string{"Science Fiction", "Space", "Adventure"},
		PublishedDate: date(2021, 5, 4),
	},
	{
		Title:         "Atomic Habits",
		Author:        "James Clear",
		Description:   "No matter your goals, Atomic Habits offers a proven framework for improving every day.",
		CoverImage:    "https://images-na.ssl-images-amazon.com/images/S/compressed.photo.goodreads.com/books/1655988385i/40121378.jpg",
		ISBN:          "9780735211292",
		Genres:        []string{"Self Help", "Nonfiction", "Psychology"},
		PublishedDate: date(2018, 10, 16),
	},
	{
		Title:         "Dune",
		Author:        "Frank Herbert",
		Description:   "Set on the desert planet Arrakis, Dune is the story of the boy Paul Atreides, heir to a noble family tasked with ruling an inhospitable world.",
		CoverImage:    "https://images-na.ssl-images-amazon.com/images/S/compressed.photo.goodreads.com/books/1555447414i/44767458.jpg",
		ISBN:          "9780441172719",
		Genres:        []string{"Science Fiction", "Fantasy", "Classic"},
		PublishedDate: date(1965, 8, 1),
	},
	{
		Title:         "The Psychology of Money",
		Author:        "Morgan Housel",
		Description:   "Timeless lessons on wealth, greed, and happiness. Doing well with money isn't necessarily about what you know.",
		CoverImage:    "https://images-na.ssl-images-amazon.com/images/S/compressed.photo.goodreads.com/books/1581527774i/41881472.jpg",
		ISBN:          "9780857197689",
		Genres:        []string{"Finance", "Nonfiction", "Business"},
		PublishedDate: date(2020, 9, 8),
	},
}

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	dataStore, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to init store: %v", err)
	}

	seedAdmin(dataStore)
	seedBooks(dataStore)
	log.Println("seed complete")
}

func seedAdmin(dataStore store.Store) {
	const adminEmail = "admin@example.com"
	if _, found, err := dataStore.GetUserByEmail(adminEmail); err != nil {
		log.Fatalf("check admin: %v", err)
	} else if found {
		log.Println("admin account already present")
		return
	}
	hash, err := auth.HashPassword("Password123!")
	if err != nil {
		log.Fatalf("hash admin password: %v", err)
	}
	now := time.Now().UTC()
	admin := domain.User{
		ID:           util.NewID(),
		Username:     "admin",
		Email:        adminEmail,
		PasswordHash: hash,
		IsAdmin:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := dataStore.CreateUser(admin); err != nil {
		log.Fatalf("create admin: %v", err)
	}
	log.Println("admin account created")
}

func seedBooks(dataStore store.Store) {
	existing, _, err := dataStore.ListBooks(store.BookFilter{Page: 1, Limit: 1})
	if err != nil {
		log.Fatalf("check catalog: %v", err)
	}
	if len(existing) > 0 {
		log.Println("catalog already seeded")
		return
	}
	now := time.Now().UTC()
	for _, book := range sampleBooks {
		book.ID = util.NewID()
		book.CreatedAt = now
		book.UpdatedAt = now
		if err := dataStore.CreateBook(book); err != nil {
			log.Fatalf("create book %q: %v", book.Title, err)
		}
		now = now.Add(time.Second)
	}
	log.Printf("seeded %d books", len(sampleBooks))
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
