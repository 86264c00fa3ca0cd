// Package seed loads a YAML course catalog into the store at startup.
// It exists for local development and demo environments, where an empty
// catalog makes every endpoint return nothing.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/courseloom/courseloom-backend/internal/platform/errs"
	"github.com/courseloom/courseloom-backend/internal/platform/logger"
	"github.com/courseloom/courseloom-backend/internal/repos"
	"github.com/courseloom/courseloom-backend/internal/types"
)

type seedFile struct {
	Courses []seedCourse `yaml:"courses"`
}

type seedCourse struct {
	ID           string        `yaml:"id"`
	Title        string        `yaml:"title"`
	Description  string        `yaml:"description"`
	Category     string        `yaml:"category"`
	Instructor   string        `yaml:"instructor"`
	ThumbnailURL string        `yaml:"thumbnail_url"`
	PriceCents   int           `yaml:"price_cents"`
	Lectures     []seedLecture `yaml:"lectures"`
}

type seedLecture struct {
	ID                   string  `yaml:"id"`
	Title                string  `yaml:"title"`
	VideoDurationMinutes float64 `yaml:"video_duration_minutes"`
	OrderIndex           *int    `yaml:"order_index"`
}

// Apply loads the catalog at path and saves every course that does not
// already exist. Courses whose id is already present are skipped whole, so
// a restart against a persistent store never resets lecture video state.
// Entries without an explicit id get a fresh one each boot; pin ids in the
// seed file when the store outlives the process.
func Apply(ctx context.Context, courses repos.CourseRepo, lectures repos.LectureRepo, path string, log *logger.Logger) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var file seedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	applied := 0
	for i, sc := range file.Courses {
		if sc.Title == "" {
			return fmt.Errorf("seed course %d missing title", i)
		}
		id := sc.ID
		if id == "" {
			id = uuid.NewString()
		}

		_, err := courses.GetByID(ctx, id)
		if err == nil {
			log.Debug("Seed course already present, skipping", "course_id", id)
			continue
		}
		if !errors.Is(err, errs.ErrNotFound) {
			return fmt.Errorf("check seed course %q: %w", id, err)
		}

		course := &types.Course{
			ID:           id,
			Title:        sc.Title,
			Description:  sc.Description,
			Category:     sc.Category,
			Instructor:   sc.Instructor,
			ThumbnailURL: sc.ThumbnailURL,
			PriceCents:   sc.PriceCents,
		}
		if err := courses.Save(ctx, course); err != nil {
			return fmt.Errorf("save seed course %q: %w", id, err)
		}

		for j, sl := range sc.Lectures {
			if sl.Title == "" {
				return fmt.Errorf("seed course %q lecture %d missing title", id, j)
			}
			lectureID := sl.ID
			if lectureID == "" {
				lectureID = uuid.NewString()
			}
			orderIndex := j
			if sl.OrderIndex != nil {
				orderIndex = *sl.OrderIndex
			}
			lecture := &types.Lecture{
				ID:                   lectureID,
				CourseID:             id,
				Title:                sl.Title,
				OrderIndex:           orderIndex,
				VideoDurationMinutes: sl.VideoDurationMinutes,
			}
			if err := lectures.Save(ctx, lecture); err != nil {
				return fmt.Errorf("save seed lecture %q: %w", lectureID, err)
			}
		}
		applied++
	}

	log.Info("Seed applied", "file", path, "courses", applied, "skipped", len(file.Courses)-applied)
	return nil
}
