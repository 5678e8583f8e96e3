package filter_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/linkfeed/linkfeed/internal/filter"
)

func TestExactDomainMatch(t *testing.T) {
	l := filter.Compile([]string{"example.com"})
	require.True(t, l.Matches("https://example.com/page"))
	require.True(t, l.Matches("http://example.com"))
	require.False(t, l.Matches("https://other.com"))
}

func TestWildcardSubdomain(t *testing.T) {
	l := filter.Compile([]string{"*.example.com"})
	require.True(t, l.Matches("https://sub.example.com"))
	require.True(t, l.Matches("https://deep.sub.example.com"))
	require.True(t, l.Matches("https://example.com"))
	require.False(t, l.Matches("https://other.com"))
}

func TestMultiplePatterns(t *testing.T) {
	l := filter.Compile([]string{"github.com", "*.gitlab.com", "bitbucket.org"})
	require.True(t, l.Matches("https://github.com/user/repo"))
	require.True(t, l.Matches("https://gitlab.com/project"))
	require.True(t, l.Matches("https://company.gitlab.com"))
	require.True(t, l.Matches("https://bitbucket.org/repo"))
	require.False(t, l.Matches("https://example.com"))
}

func TestCaseInsensitive(t *testing.T) {
	l := filter.Compile([]string{"Example.COM"})
	require.True(t, l.Matches("https://example.com"))
	require.True(t, l.Matches("https://EXAMPLE.COM"))
}

func TestPortStrippedBeforeDomainMatch(t *testing.T) {
	l := filter.Compile([]string{"localhost"})
	require.True(t, l.Matches("http://localhost:8000/page"))
}

func TestFullURLPattern(t *testing.T) {
	l := filter.Compile([]string{"https://example.com/api/*"})
	require.True(t, l.Matches("https://example.com/api/users"))
	require.False(t, l.Matches("https://example.com/home"))
}

func TestInvalidURLNeverMatches(t *testing.T) {
	l := filter.Compile([]string{"example.com"})
	require.False(t, l.Matches("not a url"))
	require.False(t, l.Matches(""))
}

func TestValidatePatterns(t *testing.T) {
	require.NoError(t, filter.ValidatePatterns(nil))
	require.NoError(t, filter.ValidatePatterns([]string{"example.com", "*.example.com", "https://x/*"}))

	err := filter.ValidatePatterns([]string{"example.com", "["})
	require.Error(t, err)
	require.Contains(t, err.Error(), `"["`)
}

func TestWhitelistedEmptyListAdmitsAll(t *testing.T) {
	urls := []string{"https://example.com", "https://test.com"}
	require.Equal(t, urls, filter.Whitelisted(urls, filter.Compile(nil)))
}

func TestWhitelistedFiltersNonMatching(t *testing.T) {
	urls := []string{
		"https://github.com/user/repo",
		"https://example.com/page",
		"https://gitlab.com/project",
	}
	result := filter.Whitelisted(urls, filter.Compile([]string{"github.com", "gitlab.com"}))
	require.Equal(t, []string{"https://github.com/user/repo", "https://gitlab.com/project"}, result)
}

func TestWhitelistedWildcard(t *testing.T) {
	urls := []string{
		"https://www.youtube.com/watch",
		"https://m.youtube.com/watch",
		"https://vimeo.com/video",
		"https://youtube.com",
	}
	result := filter.Whitelisted(urls, filter.Compile([]string{"*.youtube.com"}))
	require.Len(t, result, 3)
	require.NotContains(t, result, "https://vimeo.com/video")
}

func TestBlacklistedEmptyListBlocksNothing(t *testing.T) {
	urls := []string{"https://example.com"}
	require.Equal(t, urls, filter.Blacklisted(urls, filter.Compile(nil)))
}

func TestBlacklistedRemovesMatching(t *testing.T) {
	urls := []string{
		"https://ads.example.com/banner",
		"https://news.example.org/story",
	}
	result := filter.Blacklisted(urls, filter.Compile([]string{"*.example.com"}))
	require.Equal(t, []string{"https://news.example.org/story"}, result)
}
