// Package fixtures provides forum HTML pages for testing extraction
// and the browser session.
package fixtures

import (
	"fmt"
	"strings"
)

// GenerateSearchResults creates a results page with three hits: one with
// two prefix labels, one without labels or replies, and one whose URL
// duplicates the first.
func GenerateSearchResults() string {
	return `
<!DOCTYPE html>
<html>
<head><title>Search results</title></head>
<body>
<div class="block-container">
<ol class="block-body">
    <li class="block-row block-row--separated" data-author="darkseller">
        <div class="contentRow">
            <h3 class="contentRow-title">
                <a href="/threads/acme-corp-database.101/">
                    <span class="label label--red prefix-db" dir="auto">Database</span>
                    <span class="label prefix-2024" dir="auto">2024</span>
                    ACME Corp   customer database
                </a>
            </h3>
            <div class="contentRow-snippet">Full dump of ACME customers, 1.2M rows.</div>
            <div class="contentRow-minor">
                <ul class="listInline listInline--bullet">
                    <li><a href="/members/darkseller.7/">darkseller</a></li>
                    <li><time class="u-dt" datetime="2024-03-01T10:00:00+0000">Mar 1, 2024</time></li>
                    <li>Replies: 42</li>
                    <li>Forum: <a href="/forums/databases.4/">Databases</a></li>
                </ul>
            </div>
        </div>
    </li>
    <li class="block-row block-row--separated" data-author="">
        <div class="contentRow">
            <h3 class="contentRow-title">
                <a href="https://forum.example/threads/acme-vpn-creds.102/">ACME VPN creds</a>
            </h3>
            <div class="contentRow-minor">
                <ul class="listInline listInline--bullet">
                    <li>Forum: Combolists</li>
                </ul>
            </div>
        </div>
    </li>
    <li class="block-row block-row--separated" data-author="reposter">
        <div class="contentRow">
            <h3 class="contentRow-title">
                <a href="/threads/acme-corp-database.101/">ACME Corp customer database (repost)</a>
            </h3>
        </div>
    </li>
</ol>
</div>
</body>
</html>
`
}

// GenerateEmptyResults creates a results page with no hits.
func GenerateEmptyResults() string {
	return `
<!DOCTYPE html>
<html>
<body>
<div class="blockMessage">No results found.</div>
</body>
</html>
`
}

// GenerateThreadPage creates page `page` of a thread with `total` pages.
// Each page holds two comments; the first repeats on every page the way
// the forum repeats the opening post. With total <= 1 no page
// navigation control is rendered.
func GenerateThreadPage(page, total int) string {
	var b strings.Builder
	b.WriteString(`
<!DOCTYPE html>
<html>
<body>
<div class="block-body js-replyNewMessageContainer">
`)
	b.WriteString(comment("darkseller", "2024-03-01T10:00:00+0000", "Opening post with the sample.", "/threads/acme-corp-database.101/post-1"))
	b.WriteString(comment(fmt.Sprintf("user%d", page), fmt.Sprintf("2024-03-0%dT12:00:00+0000", page), fmt.Sprintf("Reply on page %d.\n\nSecond paragraph.", page), fmt.Sprintf("/threads/acme-corp-database.101/post-%d", page*10)))
	b.WriteString("</div>\n")

	if total > 1 {
		b.WriteString(`<nav class="pageNavWrapper"><div class="pageNav"><ul class="pageNav-main">`)
		for i := 1; i <= total; i++ {
			fmt.Fprintf(&b, `<li class="pageNav-page"><a href="/threads/acme-corp-database.101/page-%d">%d</a></li>`, i, i)
		}
		b.WriteString(`</ul></div></nav>`)
	}

	b.WriteString("\n</body>\n</html>\n")
	return b.String()
}

func comment(author, date, text, href string) string {
	return fmt.Sprintf(`
<article class="message message--post" itemtype="https://schema.org/Comment">
    <div class="message-userDetails">
        <h4 class="message-name"><a href="/members/x.1/" class="username">%s</a></h4>
    </div>
    <ul class="message-attribution-main"><li><time datetime="%s">date</time></li></ul>
    <a href="%s" class="message-attribution-gadget">#</a>
    <div class="message-body"><div class="bbWrapper">%s</div></div>
</article>
`, author, date, href, strings.ReplaceAll(text, "\n", "<br>\n"))
}

// GenerateSparseComment creates a thread page whose only comment lacks
// an author link and a permalink.
func GenerateSparseComment() string {
	return `
<!DOCTYPE html>
<html>
<body>
<article class="message" itemtype="https://schema.org/Comment">
    <time datetime="2024-05-05T05:05:05+0000">May 5</time>
    <div class="message-body">Guest reply</div>
</article>
</body>
</html>
`
}

// GenerateHomePage creates a forum landing page with the login overlay
// trigger and a hidden overlay that becomes active on click.
func GenerateHomePage() string {
	return `
<!DOCTYPE html>
<html>
<body>
<a class="button--secondary button" href="#" onclick="document.getElementById('login').className='overlay-container is-active';return false;">Log in</a>
<div id="login" class="overlay-container">
    <form action="/login/login" method="get">
        <input type="text" name="login">
        <input type="password" name="password">
        <button type="submit" class="button--primary button button--icon button--icon--login">Log in</button>
    </form>
</div>
</body>
</html>
`
}

// GenerateSearchForm creates the search page. Submitting navigates to
// /search/results unless the keyword is "rejected", in which case the
// error overlay is shown in place.
func GenerateSearchForm() string {
	return `
<!DOCTYPE html>
<html>
<body>
<form id="search" action="/search/results" method="get"
      onsubmit="if (this.keywords.value === 'rejected') { document.getElementById('err').className='overlay-container is-active'; return false; }">
    <input type="search" class="input" name="keywords">
    <input type="checkbox" name="grouped" value="1">
    <input type="radio" name="order" value="relevance" checked>
    <input type="radio" name="order" value="date">
    <button type="submit" class="button--primary button">Search</button>
</form>
<div id="err" class="overlay-container"><div class="blockMessage blockMessage--error">The search could not be completed.</div></div>
</body>
</html>
`
}
