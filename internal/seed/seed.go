// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"strings"
	"time"

	"photoshare/internal/models"
	"photoshare/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
}

var tagPool = []string{
	"sunset", "portrait", "street", "nature", "macro", "travel", "food",
	"architecture", "wildlife", "blackandwhite", "landscape", "night",
	"city", "beach", "mountains", "pets", "film", "abstract",
}

// Seeder populates the database with demo data.
type Seeder struct {
	db  *gorm.DB
	rng *rand.Rand
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB) *Seeder {
	gofakeit.Seed(time.Now().UnixNano())
	//nolint:gosec // Weak random number generator is fine for seeding
	return &Seeder{db: db, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Run executes the full seeding pass.
func (s *Seeder) Run(opts Options) error {
	log.Printf("Seeding %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	if opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			log.Println("Warning: could not clear all existing data, continuing anyway...")
		}
	}

	users, err := s.createUsers(opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("created %d users", len(users))

	posts, err := s.createPosts(users, opts.NumPosts)
	if err != nil {
		return fmt.Errorf("failed to create posts: %w", err)
	}
	log.Printf("created %d posts", len(posts))

	if err := s.createEngagement(users, posts); err != nil {
		return fmt.Errorf("failed to create comments and ratings: %w", err)
	}

	log.Println("Database seeding completed")
	return nil
}

// ClearAll removes all seeded rows. Order respects foreign keys.
func (s *Seeder) ClearAll() error {
	for _, table := range []string{"ratings", "comments", "post_m2m_tag", "posts", "tags", "users"} {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) createUsers(count int) ([]*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, count+1)

	admin := &models.User{
		Email:     "admin@photoshare.local",
		FirstName: "Admin",
		LastName:  "User",
		Password:  string(hash),
		Role:      models.RoleAdmin,
		Confirmed: true,
	}
	if err := s.db.Create(admin).Error; err != nil {
		return nil, err
	}
	users = append(users, admin)

	for i := 0; i < count; i++ {
		first := gofakeit.FirstName()
		last := gofakeit.LastName()
		user := &models.User{
			Email:     fmt.Sprintf("%s.%s%d@%s", strings.ToLower(first), strings.ToLower(last), i, gofakeit.DomainName()),
			FirstName: first,
			LastName:  last,
			Password:  string(hash),
			Role:      models.RoleUser,
			Confirmed: s.rng.Intn(10) > 2,
			Avatar:    fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		}
		if err := s.db.Create(user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) createPosts(users []*models.User, count int) ([]*models.Post, error) {
	postRepo := repository.NewPostRepository(s.db)
	posts := make([]*models.Post, 0, count)

	for i := 0; i < count; i++ {
		owner := users[s.rng.Intn(len(users))]
		publicID := gofakeit.UUID()

		post := &models.Post{
			Description:   gofakeit.Sentence(6),
			PhotoURL:      fmt.Sprintf("https://picsum.photos/seed/%s/800/800", publicID),
			PhotoPublicID: publicID,
			UserID:        owner.ID,
		}
		if err := postRepo.Create(context.Background(), post, s.randomTagString()); err != nil {
			return nil, err
		}

		// Spread creation dates so date filters have something to find.
		createdAt := time.Now().Add(-time.Duration(s.rng.Intn(90*24)) * time.Hour)
		if err := s.db.Model(&models.Post{}).Where("id = ?", post.ID).
			Update("created_at", createdAt).Error; err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (s *Seeder) randomTagString() string {
	n := s.rng.Intn(4) // 0..3 tags
	picked := make([]string, 0, n)
	for i := 0; i < n; i++ {
		picked = append(picked, tagPool[s.rng.Intn(len(tagPool))])
	}
	return strings.Join(picked, ",")
}

func (s *Seeder) createEngagement(users []*models.User, posts []*models.Post) error {
	for _, post := range posts {
		for i := 0; i < s.rng.Intn(5); i++ {
			commenter := users[s.rng.Intn(len(users))]
			comment := &models.Comment{
				Text:   gofakeit.Sentence(8),
				PostID: post.ID,
				UserID: commenter.ID,
			}
			if err := s.db.Create(comment).Error; err != nil {
				return err
			}
		}

		// Distinct raters; owners never rate their own posts.
		scores := make([]int, 0, 4)
		for _, rater := range s.pickRaters(users, post.UserID, s.rng.Intn(5)) {
			score := 1 + s.rng.Intn(5)
			rating := &models.Rating{PostID: post.ID, UserID: rater.ID, Score: score}
			if err := s.db.Create(rating).Error; err != nil {
				return err
			}
			scores = append(scores, score)
		}
		if len(scores) > 0 {
			sum := 0
			for _, score := range scores {
				sum += score
			}
			avg := math.RoundToEven(float64(sum)/float64(len(scores))*100) / 100
			if err := s.db.Model(&models.Post{}).Where("id = ?", post.ID).
				Update("rating", avg).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Seeder) pickRaters(users []*models.User, ownerID uint, count int) []*models.User {
	shuffled := make([]*models.User, len(users))
	copy(shuffled, users)
	s.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	raters := make([]*models.User, 0, count)
	for _, user := range shuffled {
		if len(raters) >= count {
			break
		}
		if user.ID == ownerID {
			continue
		}
		raters = append(raters, user)
	}
	return raters
}
