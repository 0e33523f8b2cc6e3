package engine

import (
	"cardbook/internal/models"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"time"
)

const topIndustries = 20

// Aggregate builds the geographic analytics page: contacts per country (with
// the country's dominant industry), top industries and contacts collected per
// month grouped by year.
func (cs *ContactStore) Aggregate() *models.DashboardData {
	// 1. Dimensions
	numIndustries := len(cs.IndustryDict)
	numCountries := len(cs.CountryDict)
	numRows := len(cs.Rows)

	// 2. Setup Workers
	numWorkers := min(runtime.NumCPU(), max(numRows, 1))
	chunkSize := numRows / numWorkers

	type partialAgg struct {
		countryCount  []int
		industryCount []int
		monthCount    map[int]int // YYYYMM -> contacts

		// Flattened [Country][Industry] -> [Country * NumIndustries + Industry]
		matrix []int
	}

	results := make(chan *partialAgg, numWorkers)
	var wg sync.WaitGroup

	// 3. Parallel Loop
	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if i == numWorkers-1 {
			end = numRows
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()

			p := &partialAgg{
				countryCount:  make([]int, numCountries),
				industryCount: make([]int, numIndustries),
				monthCount:    make(map[int]int),
				matrix:        make([]int, numCountries*numIndustries),
			}

			idsC := cs.CountryIDs
			idsI := cs.IndustryIDs

			for j := s; j < e; j++ {
				cid := idsC[j]
				iid := idsI[j]

				if cid >= 0 {
					p.countryCount[cid]++
				}
				if iid >= 0 {
					p.industryCount[iid]++
				}
				if cid >= 0 && iid >= 0 {
					p.matrix[int(cid)*numIndustries+int(iid)]++
				}
				if t, ok := parseDate(cs.Rows[j].CollectedAt); ok {
					p.monthCount[t.Year()*100+int(t.Month())]++
				}
			}
			results <- p
		}(start, end)
	}

	go func() { wg.Wait(); close(results) }()

	// 4. Merge Phase
	finalCountry := make([]int, numCountries)
	finalIndustry := make([]int, numIndustries)
	finalMatrix := make([]int, numCountries*numIndustries)
	finalMonth := make(map[int]int)

	for p := range results {
		for i := range finalCountry {
			finalCountry[i] += p.countryCount[i]
		}
		for i := range finalIndustry {
			finalIndustry[i] += p.industryCount[i]
		}
		for i, n := range p.matrix {
			finalMatrix[i] += n
		}
		for m, n := range p.monthCount {
			finalMonth[m] += n
		}
	}

	// 5. Build Result
	data := &models.DashboardData{
		TotalContacts:    numRows,
		CountryStats:     make([]models.CountryStat, 0, numCountries),
		TopIndustries:    make([]models.TopItem, 0, numIndustries),
		MonthlyCollected: make(map[string][]models.MonthlyItem),
	}

	for cid, n := range finalCountry {
		if n == 0 {
			continue
		}
		stat := models.CountryStat{Country: cs.CountryDict[cid], Contacts: n}
		best := 0
		for iid := 0; iid < numIndustries; iid++ {
			if c := finalMatrix[cid*numIndustries+iid]; c > best {
				best = c
				stat.TopIndustry = cs.IndustryDict[iid]
			}
		}
		data.CountryStats = append(data.CountryStats, stat)
	}
	sort.SliceStable(data.CountryStats, func(i, j int) bool {
		if data.CountryStats[i].Contacts != data.CountryStats[j].Contacts {
			return data.CountryStats[i].Contacts > data.CountryStats[j].Contacts
		}
		return data.CountryStats[i].Country < data.CountryStats[j].Country
	})

	for iid, n := range finalIndustry {
		if n > 0 {
			data.TopIndustries = append(data.TopIndustries, models.TopItem{Name: cs.IndustryDict[iid], Value: n})
		}
	}
	sort.SliceStable(data.TopIndustries, func(i, j int) bool {
		if data.TopIndustries[i].Value != data.TopIndustries[j].Value {
			return data.TopIndustries[i].Value > data.TopIndustries[j].Value
		}
		return data.TopIndustries[i].Name < data.TopIndustries[j].Name
	})
	if len(data.TopIndustries) > topIndustries {
		data.TopIndustries = data.TopIndustries[:topIndustries]
	}

	// Monthly, split by year, calendar order
	months := make([]int, 0, len(finalMonth))
	for m := range finalMonth {
		months = append(months, m)
	}
	sort.Ints(months)
	for _, m := range months {
		year := strconv.Itoa(m / 100)
		data.MonthlyCollected[year] = append(data.MonthlyCollected[year], models.MonthlyItem{
			Month:  time.Month(m % 100).String(),
			Volume: finalMonth[m],
		})
	}

	return data
}
