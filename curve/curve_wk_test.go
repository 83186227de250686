package curve

import "fmt"

func siteKey(siteID int64) string {
	return fmt.Sprintf("S_%d", siteID)
}

func allKey() string {
	return "all"
}
