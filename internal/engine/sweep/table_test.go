package sweep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTable(t *testing.T) {
	table := DefaultTable()

	assert.Equal(t, []string{"캠핑", "힐링", "산", "테마파크"}, table.Categories())

	regions := table.Regions()
	require.Len(t, regions, 11)
	seen := map[string]bool{}
	for _, r := range regions {
		assert.Len(t, r.Cities, 3, "region %s", r.Name)
		assert.False(t, seen[r.Name], "duplicate region %s", r.Name)
		seen[r.Name] = true
	}
	assert.Len(t, table.RegionCityJobs(DefaultResultLimit), 33)
}

func TestRegionCityJobs_Jeju(t *testing.T) {
	var cities, queries []string
	for _, job := range DefaultTable().RegionCityJobs(DefaultResultLimit) {
		if job.Region != "제주도" {
			continue
		}
		assert.Equal(t, DefaultResultLimit, job.Limit)
		cities = append(cities, job.City)
		queries = append(queries, job.Query())
	}
	assert.ElementsMatch(t, []string{"서귀포", "성산", "애월"}, cities)
	assert.ElementsMatch(t, []string{"서귀포 여행", "성산 여행", "애월 여행"}, queries)
}

func TestCategoryJobs(t *testing.T) {
	jobs := DefaultTable().CategoryJobs(15)
	require.Len(t, jobs, 4)
	for _, j := range jobs {
		assert.Equal(t, j.Keyword, j.Category)
		assert.Equal(t, 15, j.Limit)
	}
}

func TestNewTable_CopiesInput(t *testing.T) {
	categories := []string{"캠핑"}
	regions := []Region{{Name: "제주도", Cities: []string{"애월"}}}
	table := NewTable(categories, regions)

	categories[0] = "changed"
	regions[0].Cities[0] = "changed"

	assert.Equal(t, []string{"캠핑"}, table.Categories())
	assert.Equal(t, "애월", table.Regions()[0].Cities[0])

	got := table.Regions()
	got[0].Cities[0] = "mutated"
	assert.Equal(t, "애월", table.Regions()[0].Cities[0], "accessors return copies")
}

func TestTable_WithCategories(t *testing.T) {
	table := DefaultTable().WithCategories([]string{"바다"})
	assert.Equal(t, []string{"바다"}, table.Categories())
	assert.Len(t, table.RegionCityJobs(15), 33)
}
