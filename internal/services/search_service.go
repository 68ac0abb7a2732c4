package services

import (
	"log"
	"sort"
	"strings"

	"pillr/internal/models"

	"gorm.io/gorm"
)

// MedicationSearchResult pairs a medication with its match score
type MedicationSearchResult struct {
	Medication models.Medication `json:"medication"`
	Score      float64           `json:"score"`
}

// SearchService finds medications in a user's cabinet by name, brand or
// generic name
type SearchService struct {
	db *gorm.DB
}

func NewSearchService(db *gorm.DB) *SearchService {
	return &SearchService{db: db}
}

// SearchMedications performs a ranked partial-match search over the user's
// medications. Exact prefix matches on any name field rank above substring
// matches.
func (s *SearchService) SearchMedications(username, searchTerm string, limit int) ([]models.Medication, error) {
	cleanTerm := strings.TrimSpace(searchTerm)
	if cleanTerm == "" {
		return []models.Medication{}, nil
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	pattern := "%" + cleanTerm + "%"
	var candidates []models.Medication
	err := s.db.
		Where("username = ?", username).
		Where("name ILIKE ? OR brand_name ILIKE ? OR generic_name ILIKE ?", pattern, pattern, pattern).
		Find(&candidates).Error
	if err != nil {
		log.Printf("Medication search error: %v", err)
		return nil, err
	}

	results := make([]MedicationSearchResult, 0, len(candidates))
	for _, med := range candidates {
		results = append(results, MedicationSearchResult{
			Medication: med,
			Score:      scoreMatch(med, cleanTerm),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > limit {
		results = results[:limit]
	}

	medications := make([]models.Medication, len(results))
	for i, result := range results {
		medications[i] = result.Medication
	}
	return medications, nil
}

// scoreMatch ranks prefix matches above substring matches, and matches on the
// display name above matches on secondary fields
func scoreMatch(med models.Medication, term string) float64 {
	lowered := strings.ToLower(term)
	score := 0.0

	fields := []struct {
		value  string
		weight float64
	}{
		{med.Name, 3},
		{med.BrandName, 2},
		{med.GenericName, 1},
	}

	for _, field := range fields {
		value := strings.ToLower(field.value)
		if value == "" {
			continue
		}
		switch {
		case value == lowered:
			score += field.weight * 10
		case strings.HasPrefix(value, lowered):
			score += field.weight * 5
		case strings.Contains(value, lowered):
			score += field.weight
		}
	}

	return score
}
