package normalize

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
)

// Author is a derived top-authors entry, grouped from the book list.
type Author struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	BooksCount int    `json:"booksCount"`
	ReadsCount string `json:"readsCount"`
	AvatarURL  string `json:"avatarUrl"`
}

// Product defaults shown when the catalog is empty.
var (
	FallbackGenres = []string{
		"Fantastika",
		"Detektiv",
		"Drama",
		"Romantika",
		"Triller",
		"Tarixiy",
		"Sarguzasht",
	}

	FallbackTrending = []Book{
		{
			ID:       "1",
			Title:    "Soyalar O'yini: Qasos va Sevgi",
			Author:   "GhostWriter99",
			CoverURL: "https://lh3.googleusercontent.com/aida-public/AB6AXuAFwY09NxbRP5IWWStoPob_Acayy-d0wY22NckWElagHwb7trso4OFvFrr-Q-6h3-H1lz71DPEeIR853AnCq6Z0WcFf1GbWEcTA2ePW2Hv_VHsqpdua1PGJMIIyCE4dHupY81Q2eGffR6d9TLiC4ri5zcQGDihVPDkDEYu_fM0POPtFK8RE9AyWN5RQURM5Cwt-ORz7x47etdBiD_Ngl__Dg0xuibIFFW9-s3YTHK2HBKVJBQkCAEbnJ6jAbAX9yz2EtNNlsgd-Gqs",
			Rating:   fallbackRating(4.9),
			Category: "Fantastika",
		},
		{
			ID:       "2",
			Title:    "Anonim 77: Yo'qolgan Sahifa",
			Author:   "Sherzod_X",
			CoverURL: "https://lh3.googleusercontent.com/aida-public/AB6AXuB-cLIdRUGiZ_OVTBkOutYkxfHzaxYn-3gwJkvp5eo9G4RILrk8bSXIr8cvojnOedlT3m4CImcooRcnSwV5K-UWIpIileKcyftTR9pj2KGnmNMXbfoZ2BJ_VHZUQBnjQA2dLRrJN5Wg6nOzwTiqLgl9e7XE84DC2QcAfjkLnAEpHDe5Qnkh8FfIM7ArtWApjdGCFGgcanB6viTiGkMeZPBatgi8u89SdNz5pOpBMTLWdfqbkZaYYvnXZ-1Op31aVr7GbGCjwArhZrc",
			Rating:   fallbackRating(4.7),
			Category: "Detektiv",
		},
		{
			ID:       "3",
			Title:    "Mars Koloniyasi: Ertangi Kun",
			Author:   "StarGazer",
			CoverURL: "https://lh3.googleusercontent.com/aida-public/AB6AXuC_qD3MHsqb1puSHyfIp2zNEYOfCOgzeUNNt502G2mn5DWorpg6wfrOV6yQWF-TYwB6bupqBnVwicBf6PE1n1kSgGl5VBQLCHmpP9TYiU5wnKIui4N88zXM6Qx8YB0uW66oDT63BZiOiKzf73Dmo_IoiA-1Zzng8CyiwwQS4pMPIXGF85JHJN0qLlOrLLiAYzRJpNfygNk7eWFrDfPWAbKvAlYBijZzmAY-x5wD2JMy3pCjz-xciM8h9YEUn8jfW0m9KJuETpBm1fA",
			Rating:   fallbackRating(4.8),
			Category: "Sci-Fi",
		},
		{
			ID:       "4",
			Title:    "Yomg'ir Ostida",
			Author:   "RainDrop_22",
			CoverURL: "https://lh3.googleusercontent.com/aida-public/AB6AXuCj4xShxRRpQRm3SwlM21CI-I9AIQdKYyOHN3tZ_zha-u6o8iEfC44sdxey1oXse0pje0zwqcxAN1PFleEptJqbrEVX7zc3mVcSDtWcsKUOJqSOFH8ciVgByUe_ZZ_0ej17afzBGXQ-UEPzh_TVMX2xZiuMpiqn6zam8t88YRs5wcMQ57KIymGdsLO9wjwxjV_TIYvgdvNIo7rlbs-RUsxs38UuARGoNrTl8ylcbCHeZ_HREUkTKB-0eF5Nl-vU2VWZZZKCtOVS__E",
			Rating:   fallbackRating(4.5),
			Category: "Drama",
		},
	}

	FallbackNewArrivals = []Book{
		{
			ID:          "5",
			Title:       "Tungi Sharpalar",
			Author:      "Mystic_Author",
			CoverURL:    "https://lh3.googleusercontent.com/aida-public/AB6AXuD8wRDDSLfB61LZkNXKPnzRUb8M9P1XrA4chwEHTwpmq-XbsyJhpvyx_iJX7Ly4Ty_Xhu7d7xLD4IyeV2vDoeSJjXb0qsJMJrp7TUy6dw6G0Tv2jhwd5UBLHRYSjJjaEgbOSr3NSf57DoaGP4sinDuauqe0J-49jkdnhTFlc7sP8PXZJDM6Rvw6jeoIoxt-aDA_nrb-TKScEFruP0Fn3_qPwnhplhGrL8KaITSNYarIZd-XW0AUqhqCvj1qCbwC9uvBEwP8ioAhFTY",
			Category:    "Triller",
			Timestamp:   "3 soat oldin",
			Description: "Eski qasrda yuz bergan sirli voqealar zanjiri...",
			ReadCount:   "1.2k",
			IsNew:       true,
		},
		{
			ID:          "6",
			Title:       "Buyuk Ipak Yo'li",
			Author:      "History_Buff",
			CoverURL:    "https://lh3.googleusercontent.com/aida-public/AB6AXuCp6FFiXwluwbC-OJyrBNE4XItr5T5DhNogi5ZAb1ixhykJCAGDapewXwQQ8FCrVYgO1x0ytrdMgnt2q3tU_5RerdlQbN8fOySfEGdR4T3TBFl9QiuzNEVfS8l2yFJnry6sDbjnU_P_4yB6Z-FagQdbqs9VdhV2EtrmLL7K2uAgzmTeFTIGgTvOhqPNJuSNWimKcmAx2swTvgWwpbUJN5WToLzg3rjTggj-dKiNz7tB50lCM-4XE7Xy8782d10iu4x-B2cv_HpK6mw",
			Category:    "Tarixiy",
			Timestamp:   "5 soat oldin",
			Description: "Qadimiy karvonlarning sirlari va sarguzashtlari.",
			ReadCount:   "856",
			IsNew:       true,
		},
		{
			ID:          "7",
			Title:       "Inson Tabiati",
			Author:      "Dr_Mind",
			CoverURL:    "https://lh3.googleusercontent.com/aida-public/AB6AXuBVEDaUOHe6QzINktPyyrn3t5WGvl_LqCiA9kO58x5cFSQ4MTL_3vb8PSJWkwc5W79ZXw6lkUBsB8ibuyRsiWEH3QvT1xOKQoE1c8UFjxt6dIgnRO33F3U3UUwulUjKajCHdWZFNrLXwjN_lmVvjhlMR5qt7j0L6uFXG5J0fWukNufrcBuRElVLjJpK4UdMeD8G4JUMPl9LInOLbENdLGEk3t0Zw5mGBYUr1AqQyNhnwa3EA9TCvtbK5cLZdblapSWX0QFCiMORlnI",
			Category:    "Psixologiya",
			Timestamp:   "6 soat oldin",
			Description: "O'zligingizni anglash uchun qo'llanma.",
			ReadCount:   "2.1k",
			IsNew:       true,
		},
		{
			ID:          "8",
			Title:       "Amazonka Sirrlari",
			Author:      "Jungleboy",
			CoverURL:    "https://lh3.googleusercontent.com/aida-public/AB6AXuCRtLl5MueZ3RVMgw7tGlXjOj-6wZg7o5018yPa3YgwY-DR3DQzyr8eMeKQRjoYmi-RZJZH9BCEhcZ3v2d_hkByaSr-xVACCbk45Oc7RmbnY2IMfBS1WFFuocTa8CSzYg591CE-x7YUWC8YCY4tl5DxrsF2ukSkEbxdQf_LO7x5eBuuIYwioudn5riHsNg0vobkrn0D2V7pAfY0Z41VmhnZWbIAAAQz31ncZUJOj_3R4ZcEVkbR0lVPIfylx2SQEVZ8wjERyxaFxpI",
			Category:    "Sarguzasht",
			Timestamp:   "8 soat oldin",
			Description: "Yovvoyi tabiat qo'ynida omon qolish.",
			ReadCount:   "450",
			IsNew:       true,
		},
	}

	FallbackAuthors = []Author{
		{
			ID:         "a1",
			Name:       "Mystic_Author",
			BooksCount: 14,
			ReadsCount: "45k",
			AvatarURL:  "https://lh3.googleusercontent.com/aida-public/AB6AXuCzqYHSNXSewgJnpwmpwgN79ul_ryIC1mbdYy7Bxj0abCHXMDlbZ8kVVqikkWuDI77SUZ_sjlTiGrTlmTWjuOXDlI7IUi4y88MFQLkn-XQCcYYLSD6DuDTarwnyfLTeHoHjAHWS3ozaA5SKC-H04StTqr5OviYdPJ8gdOtstzJuuy-VY1BI7sR8oDwn_kXl3YXnfhTYm8aZtmMIa9JdTaY5ft6TtRPXk0F5_sQiH2vz1C9_RPGh9NUwISnqqIvdGIqcYmAnzgNu6E4",
		},
		{
			ID:         "a2",
			Name:       "History_Buff",
			BooksCount: 8,
			ReadsCount: "22k",
			AvatarURL:  "https://lh3.googleusercontent.com/aida-public/AB6AXuAHJdx9aQCNbiANArCgALpREI5ucdFWcqYVBQGbOIiYTDImQvROEFUQlJxhVKG5BfJtFgBqCumZuiX4K4-hfnk6KbkO6KUPH3L_25h9Rpwbmse1VzD3VhdECOUlcmS3-z8gol-Ure_ZRGdynr4J5S2fK2yzwttlYtwnAxFavSDtMblOAXFrw6H-U30beCdNkViM_B3dXwWOe_rBfzj1HaoC2_KJVI8mU04cl5zJXM9HybF-izR2CscTMJBeGU4bKBYwcR1kAEVDpe4",
		},
		{
			ID:         "a3",
			Name:       "Poet_Soul",
			BooksCount: 32,
			ReadsCount: "12k",
			AvatarURL:  "https://lh3.googleusercontent.com/aida-public/AB6AXuD1OVcLwIXMJXoEPPe-wzzFf8uB5uKHxmQpBL8S1hOcxHohbd5nI1E-a9yapTHLZbLDsmLImMDFylY41691lnppZu0_JCpsJGlHydsHUyyjYYX4xlJKfO6vAiD7VKRk8c8Gvi8f5AymGDn-3zAFfStAy8uvoaA3E0UtfPrtbiHTFrSmjExtcgrfpHWFBkgIYINMPpGdgkyFQ-0sb2dv1SBObr7PhgLRxd6CCWdJPA5e_gVT9h5ebmxp48JZVhoFvXNOSRgdpjDSztQ",
		},
	}
)

func fallbackRating(v float64) *float64 { return &v }

// PickTrending returns the top four books by rating; unrated books count
// as zero. An empty catalog yields the product placeholder set.
func PickTrending(books []Book) []Book {
	if len(books) == 0 {
		return FallbackTrending
	}
	sorted := make([]Book, len(books))
	copy(sorted, books)
	sort.SliceStable(sorted, func(i, j int) bool {
		return ratingOf(sorted[i]) > ratingOf(sorted[j])
	})
	return headBooks(sorted, 4)
}

// PickNewArrivals returns the six most recent books by reverse-chronological
// timestamp string comparison (the backend's timestamps sort lexically).
// An empty catalog yields the product placeholder set.
func PickNewArrivals(books []Book) []Book {
	if len(books) == 0 {
		return FallbackNewArrivals
	}
	sorted := make([]Book, len(books))
	copy(sorted, books)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp > sorted[j].Timestamp
	})
	return headBooks(sorted, 6)
}

// TopGenres groups books by category and returns the seven most common,
// falling back to the product default list for an empty catalog.
func TopGenres(books []Book) []string {
	if len(books) == 0 {
		return FallbackGenres
	}

	counts := map[string]int{}
	var order []string
	for _, book := range books {
		genre := book.Category
		if genre == "" {
			genre = otherCategory
		}
		if counts[genre] == 0 {
			order = append(order, genre)
		}
		counts[genre]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > 7 {
		order = order[:7]
	}
	return order
}

var nonNumeric = regexp.MustCompile(`[^\d.]`)

// TopAuthors groups books by author, counting works and summing the parsed
// numeric part of each book's read count, and returns the five most prolific.
// An empty catalog yields the product placeholder set.
func TopAuthors(books []Book) []Author {
	if len(books) == 0 {
		return FallbackAuthors
	}

	type stats struct {
		books int
		reads float64
	}
	byAuthor := map[string]*stats{}
	var order []string
	for _, book := range books {
		name := book.Author
		if name == "" {
			name = "Noma'lum"
		}
		s, ok := byAuthor[name]
		if !ok {
			s = &stats{}
			byAuthor[name] = s
			order = append(order, name)
		}
		s.books++

		parsed, err := strconv.ParseFloat(nonNumeric.ReplaceAllString(book.ReadCount, ""), 64)
		if err == nil && !math.IsInf(parsed, 0) && !math.IsNaN(parsed) {
			s.reads += parsed
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return byAuthor[order[i]].books > byAuthor[order[j]].books
	})
	if len(order) > 5 {
		order = order[:5]
	}

	authors := make([]Author, 0, len(order))
	for i, name := range order {
		s := byAuthor[name]
		reads := int(math.Round(s.reads))
		if reads < 1 {
			reads = 1
		}
		authors = append(authors, Author{
			ID:         fmt.Sprintf("author-%d", i+1),
			Name:       name,
			BooksCount: s.books,
			ReadsCount: strconv.Itoa(reads),
			AvatarURL:  AvatarURL(name),
		})
	}
	return authors
}

// MergeBooks combines pages of search results, later entries replacing
// earlier ones with the same id while keeping first-seen order.
func MergeBooks(existing, incoming []Book) []Book {
	merged := make([]Book, 0, len(existing)+len(incoming))
	index := map[string]int{}
	for _, book := range append(append([]Book{}, existing...), incoming...) {
		if at, ok := index[book.ID]; ok {
			merged[at] = book
			continue
		}
		index[book.ID] = len(merged)
		merged = append(merged, book)
	}
	return merged
}

func ratingOf(b Book) float64 {
	if b.Rating == nil {
		return 0
	}
	return *b.Rating
}

func headBooks(books []Book, n int) []Book {
	if len(books) > n {
		books = books[:n]
	}
	return books
}
