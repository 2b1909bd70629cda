package jobmatch

import "context"

// Scraper turns user-entered job records into evaluator input. A real scraping
// collaborator can replace ManualScraper without changing the orchestration.
type Scraper interface {
	Scrape(ctx context.Context, jobs []JobRecord) ([]ScrapedJobRecord, error)
}

// ManualScraper is the identity stage: descriptions are entered by hand.
type ManualScraper struct{}

func (ManualScraper) Scrape(_ context.Context, jobs []JobRecord) ([]ScrapedJobRecord, error) {
	out := make([]ScrapedJobRecord, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, ScrapedJobRecord{
			ID:          j.ID,
			Title:       j.Title,
			Company:     j.Company,
			Description: j.Description,
		})
	}
	return out, nil
}
