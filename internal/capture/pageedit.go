// internal/capture/pageedit.go
package capture

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// The selector tables below track the upstream markup and are expected to
// drift. Keep them as data so an update never touches the edit logic.

// globalHideXPaths are the site chrome regions around the tweet: navigation
// sidebar, header bar, trending panel and the inline reply composer's
// ancestor block.
var globalHideXPaths = []string{
	"/html/body/div/div/div/div[1]",
	"/html/body/div/div/div/div[2]/header",
	"/html/body/div/div/div/div[2]/main/div/div/div/div/div/div[1]",
	".//ancestor::div[@data-testid = 'tweetButtonInline']/../../../../../../../../../../..",
}

// footerXPaths are the footer/metadata sub-elements of the tweet block,
// addressed relative to it:
//
//	0: timestamp line
//	1: action-button group (unlabeled variant)
//	2: action-button group (labeled variant)
//	3: caret/more menu trigger
//	4: overlay button span ancestors
//	5: the caret trigger's enclosing block
var footerXPaths = []string{
	"((//ancestor::time)/..)[contains(@aria-describedby, 'id__')]",
	".//div[contains(@role, 'group')][not(contains(@id, 'id__'))]",
	".//div[contains(@role, 'group')][contains(@id, 'id__')]",
	".//div[contains(@data-testid, 'caret')]",
	"((//ancestor::span)/..)[contains(@role, 'button')]",
	".//div[contains(@data-testid, 'caret')]/../../../../..",
}

// modeHideSets maps a display mode to the footerXPaths indices it hides.
var modeHideSets = map[int][]int{
	0: {0, 1, 2, 3, 4, 5},
	1: {0, 2, 3, 4, 5},
	2: {2, 3, 4, 5},
	3: {3, 4, 5},
	4: {1, 2, 3, 4, 5},
}

// scaleCSS constrains the tweet column width and disables page-wide zoom
// scaling so the crop geometry is stable across viewports.
const scaleCSS = `.r-1ye8kvj { max-width: 40rem !important; } ` +
	`.r-rthrr5 { width: 100% !important; } ` +
	`body { scale: 1 !important; transform-origin: 0 0 !important; }`

// hideSetForMode returns the footer indices hidden under mode. The mode is
// assumed to be clamped already; unknown values hide nothing.
func hideSetForMode(mode int) []int {
	return modeHideSets[mode]
}

// applyCosmeticEdits performs the full pre-screenshot edit batch on the
// loaded page. Every step is independently best-effort: the upstream markup
// changes without notice, and a missing optional element must degrade to a
// debug log, never abort the capture.
func applyCosmeticEdits(ctx context.Context, logger *zap.Logger, mode int) {
	edits := []struct {
		name string
		js   string
	}{
		{"inject style", injectStyleJS()},
		{"hide global chrome", hideByXPathJS(globalHideXPaths, "document")},
		{"blur focus", `!!document.activeElement ? document.activeElement.blur() : 0`},
		{"hide footer items", hideFooterJS(mode)},
		{"clear border", clearBorderJS()},
		{"pad tweet", padTweetJS(mode)},
	}
	for _, edit := range edits {
		if edit.js == "" {
			continue
		}
		if err := chromedp.Run(ctx, chromedp.Evaluate(edit.js, nil)); err != nil {
			logger.Debug("Cosmetic edit skipped", zap.String("edit", edit.name), zap.Error(err))
		}
	}
}

func injectStyleJS() string {
	return fmt.Sprintf(`(function() {
	var style = document.createElement('style');
	style.innerHTML = %q;
	document.head.appendChild(style);
})()`, scaleCSS)
}

// xpathAll is a JS helper evaluating an XPath against a context node and
// returning the matches as an array.
const xpathAll = `function xp(expr, ctx) {
	var out = [];
	try {
		var it = document.evaluate(expr, ctx, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
		for (var i = 0; i < it.snapshotLength; i++) out.push(it.snapshotItem(i));
	} catch (e) {}
	return out;
}`

func hideByXPathJS(xpaths []string, ctxExpr string) string {
	var quoted []string
	for _, x := range xpaths {
		quoted = append(quoted, fmt.Sprintf("%q", x))
	}
	return fmt.Sprintf(`(function() {
	%s
	var paths = [%s];
	paths.forEach(function(p) {
		xp(p, %s).forEach(function(el) { el.style.display = 'none'; });
	});
})()`, xpathAll, strings.Join(quoted, ", "), ctxExpr)
}

// hideFooterJS hides the mode's footer set relative to the tweet block.
func hideFooterJS(mode int) string {
	set := hideSetForMode(mode)
	if len(set) == 0 {
		return ""
	}
	var quoted []string
	for _, i := range set {
		quoted = append(quoted, fmt.Sprintf("%q", footerXPaths[i]))
	}
	return fmt.Sprintf(`(function() {
	%s
	var tweet = document.querySelector(%q);
	if (!tweet) return;
	var paths = [%s];
	paths.forEach(function(p) {
		xp(p, tweet).forEach(function(el) { el.style.display = 'none'; });
	});
})()`, xpathAll, tweetSelector, strings.Join(quoted, ", "))
}

// clearBorderJS removes the bottom border of the labeled action group when
// exactly one is present, so the crop doesn't show a stray line.
func clearBorderJS() string {
	return fmt.Sprintf(`(function() {
	%s
	var tweet = document.querySelector(%q);
	if (!tweet) return;
	var els = xp(%q, tweet);
	if (els.length === 1) els[0].style.borderBottom = 'none';
})()`, xpathAll, tweetSelector, footerXPaths[2])
}

// padTweetJS adds bottom padding for the fully stripped modes, which would
// otherwise crop flush against the last text line.
func padTweetJS(mode int) string {
	if mode != 0 && mode != 1 {
		return ""
	}
	return fmt.Sprintf(`(function() {
	var tweet = document.querySelector(%q);
	if (tweet && tweet.childNodes.length > 0) {
		tweet.childNodes[0].style.paddingBottom = '35px';
	}
})()`, tweetSelector)
}
