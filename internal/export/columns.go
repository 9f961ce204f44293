package export

import (
	"golang.org/x/text/language"
)

// column indexes into the header tables below.
const (
	colName = iota
	colLanguage
	colDescription
	colURL
	colStars
	colLastPushed
	colDaysInactive
	colAnnualCommits
	colLatestCommit
	colStatus
	colProjectAge
	colWatchers
	colSubscribers
	colForks
	colOpenIssues
	colTopics
	colLatestRelease
	numColumns
)

var englishHeaders = [numColumns]string{
	"Repository", "Language", "Description", "URL", "Stars", "Last Pushed",
	"Days Inactive", "Annual Commits", "Latest Commit", "Status", "Project Age",
	"Watchers", "Subscribers", "Forks", "Open Issues", "Topics", "Latest Release",
}

var chineseHeaders = [numColumns]string{
	"仓库名", "编程语言", "项目描述", "仓库链接", "Star数", "最近更新日期",
	"沉寂天数", "年提交数", "最近更新内容", "仓库状态", "项目年龄",
	"关注者数", "订阅者数", "Fork数", "开放Issues", "项目标签", "最新版本",
}

// matcher candidates; the index returned by MatchStrings selects the table.
var matcher = language.NewMatcher([]language.Tag{language.English, language.Chinese})

// Headers returns the column headers for the best match of locale.
// Unknown or empty locales fall back to English.
func Headers(locale string) []string {
	_, idx := language.MatchStrings(matcher, locale)
	if idx == 1 {
		return chineseHeaders[:]
	}
	return englishHeaders[:]
}

// headerIndex maps every known header (any locale) to its column.
func headerIndex() map[string]int {
	idx := make(map[string]int, 2*numColumns)
	for i := 0; i < numColumns; i++ {
		idx[englishHeaders[i]] = i
		idx[chineseHeaders[i]] = i
	}
	return idx
}
