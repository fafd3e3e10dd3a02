package statistics

import (
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/iommarket/marketplace/app/models"
	"github.com/iommarket/marketplace/internal/pkg/cache"
	"github.com/iommarket/marketplace/internal/pkg/database"
	"github.com/iommarket/marketplace/internal/pkg/lifecycle"
)

const (
	CacheKeyListingsTotal = "statistics:listings:total"
	CacheKeyListingsLive  = "statistics:listings:live"
	CacheKeyListingsDaily = "statistics:listings:daily:%s" // Format with date YYYY-MM-DD
	CacheKeyUsers         = "statistics:users:total"
	CacheExpiration       = 30 * time.Minute
)

// StatisticsData holds the headline marketplace numbers.
type StatisticsData struct {
	TodayListings int
	LiveListings  int
	TotalListings int
	TotalUsers    int
}

var (
	lastCacheUpdate     time.Time
	cacheUpdateMutex    sync.Mutex
	cacheUpdateInterval = 5 * time.Minute
)

// ShouldUpdateCache reports whether the cached numbers are due a refresh.
func ShouldUpdateCache() bool {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	return time.Since(lastCacheUpdate) > cacheUpdateInterval
}

// UpdateCacheIfNeeded refreshes the cached numbers when due.
func UpdateCacheIfNeeded() {
	if ShouldUpdateCache() {
		cacheUpdateMutex.Lock()
		defer cacheUpdateMutex.Unlock()

		if err := UpdateStatisticsCache(); err != nil {
			log.Printf("Error updating statistics cache: %v", err)
		} else {
			lastCacheUpdate = time.Now()
		}
	}
}

// ResetCacheUpdateTimer forces the next read to refresh.
func ResetCacheUpdateTimer() {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	lastCacheUpdate = time.Time{}
}

// UpdateStatisticsCache recounts everything and stores the results in Redis.
func UpdateStatisticsCache() error {
	db := database.GetDB()

	var totalListings int64
	if err := db.Model(&models.Listing{}).Count(&totalListings).Error; err != nil {
		log.Printf("Error counting total listings: %v", err)
		return err
	}

	var liveListings int64
	if err := db.Model(&models.Listing{}).
		Where("status IN ?", []lifecycle.Status{lifecycle.StatusLive, lifecycle.StatusApproved}).
		Count(&liveListings).Error; err != nil {
		log.Printf("Error counting live listings: %v", err)
		return err
	}

	var todayListings int64
	today := time.Now().Format("2006-01-02")
	todayStart, _ := time.Parse("2006-01-02", today)
	todayEnd := todayStart.Add(24 * time.Hour)

	if err := db.Model(&models.Listing{}).Where("created_at BETWEEN ? AND ?", todayStart, todayEnd).Count(&todayListings).Error; err != nil {
		log.Printf("Error counting today's listings: %v", err)
		return err
	}

	var totalUsers int64
	if err := db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		log.Printf("Error counting total users: %v", err)
		return err
	}

	if err := cache.Set(CacheKeyListingsTotal, strconv.FormatInt(totalListings, 10), CacheExpiration); err != nil {
		return err
	}
	if err := cache.Set(CacheKeyListingsLive, strconv.FormatInt(liveListings, 10), CacheExpiration); err != nil {
		return err
	}
	dailyKey := fmt.Sprintf(CacheKeyListingsDaily, today)
	if err := cache.Set(dailyKey, strconv.FormatInt(todayListings, 10), CacheExpiration); err != nil {
		return err
	}
	if err := cache.Set(CacheKeyUsers, strconv.FormatInt(totalUsers, 10), CacheExpiration); err != nil {
		return err
	}

	return nil
}

// GetTotalListings returns the listing count from cache, recounting on a miss.
func GetTotalListings() int {
	if v, ok := getCachedInt(CacheKeyListingsTotal); ok {
		return v
	}

	var count int64
	if err := database.GetDB().Model(&models.Listing{}).Count(&count).Error; err != nil {
		log.Printf("Error counting total listings: %v", err)
		return 0
	}
	if err := cache.Set(CacheKeyListingsTotal, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
		log.Printf("Error caching total listings: %v", err)
	}
	return int(count)
}

func getCachedInt(key string) (int, bool) {
	val, err := cache.Get(key)
	if err != nil {
		return 0, false
	}
	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return int(count), true
}

// GetStatisticsData returns all headline numbers, refreshing the cache first
// when due.
func GetStatisticsData() StatisticsData {
	UpdateCacheIfNeeded()

	// The total carries a DB fallback; the remaining numbers are cheap to
	// miss for one interval and read straight from the cache.
	data := StatisticsData{TotalListings: GetTotalListings()}
	if v, ok := getCachedInt(CacheKeyListingsLive); ok {
		data.LiveListings = v
	}
	dailyKey := fmt.Sprintf(CacheKeyListingsDaily, time.Now().Format("2006-01-02"))
	if v, ok := getCachedInt(dailyKey); ok {
		data.TodayListings = v
	}
	if v, ok := getCachedInt(CacheKeyUsers); ok {
		data.TotalUsers = v
	}
	return data
}
