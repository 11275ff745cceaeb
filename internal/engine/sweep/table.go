package sweep

import "slices"

// DefaultResultLimit is how many results each keyword or city job asks for.
const DefaultResultLimit = 15

// Region is a region name with the cities swept under it.
type Region struct {
	Name   string
	Cities []string
}

// KeywordJob is one category keyword search within a category sweep.
type KeywordJob struct {
	Keyword  string
	Limit    int
	Category string
}

// RegionCityJob is one city search within a region/city sweep.
type RegionCityJob struct {
	Region string
	City   string
	Limit  int
}

// Query is the search string sent for the city.
func (j RegionCityJob) Query() string {
	return j.City + " 여행"
}

// Table is the immutable keyword/region configuration a Scheduler sweeps.
// Build it with NewTable or DefaultTable; the zero value sweeps nothing.
type Table struct {
	categories []string
	regions    []Region
}

// NewTable copies categories and regions so later changes by the caller are not observed.
func NewTable(categories []string, regions []Region) Table {
	t := Table{categories: slices.Clone(categories)}
	for _, r := range regions {
		t.regions = append(t.regions, Region{Name: r.Name, Cities: slices.Clone(r.Cities)})
	}
	return t
}

var defaultCategories = []string{"캠핑", "힐링", "산", "테마파크"}

var defaultRegions = []Region{
	{Name: "서울", Cities: []string{"강남", "종로", "홍대"}},
	{Name: "부산", Cities: []string{"해운대", "광안리", "기장"}},
	{Name: "인천", Cities: []string{"송도", "강화도", "을왕리"}},
	{Name: "경기도", Cities: []string{"가평", "수원", "파주"}},
	{Name: "강원도", Cities: []string{"강릉", "속초", "춘천"}},
	{Name: "충청남도", Cities: []string{"태안", "보령", "공주"}},
	{Name: "전라북도", Cities: []string{"전주", "군산", "남원"}},
	{Name: "전라남도", Cities: []string{"여수", "순천", "담양"}},
	{Name: "경상북도", Cities: []string{"경주", "안동", "포항"}},
	{Name: "경상남도", Cities: []string{"통영", "거제", "남해"}},
	{Name: "제주도", Cities: []string{"서귀포", "성산", "애월"}},
}

// DefaultTable returns the built-in four categories and 11 regions × 3 cities.
func DefaultTable() Table {
	return NewTable(defaultCategories, defaultRegions)
}

// WithCategories returns a copy of t with its category list replaced.
func (t Table) WithCategories(categories []string) Table {
	return NewTable(categories, t.regions)
}

// Categories returns a copy of the category keywords.
func (t Table) Categories() []string {
	return slices.Clone(t.categories)
}

// Regions returns a copy of the region table.
func (t Table) Regions() []Region {
	return NewTable(nil, t.regions).regions
}

// CategoryJobs builds one job per category keyword, in table order.
func (t Table) CategoryJobs(limit int) []KeywordJob {
	jobs := make([]KeywordJob, 0, len(t.categories))
	for _, c := range t.categories {
		jobs = append(jobs, KeywordJob{Keyword: c, Limit: limit, Category: c})
	}
	return jobs
}

// RegionCityJobs builds one job per (region, city) pair, in table order.
func (t Table) RegionCityJobs(limit int) []RegionCityJob {
	var jobs []RegionCityJob
	for _, r := range t.regions {
		for _, c := range r.Cities {
			jobs = append(jobs, RegionCityJob{Region: r.Name, City: c, Limit: limit})
		}
	}
	return jobs
}
