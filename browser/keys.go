package browser

import (
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

const keyPause = 150 * time.Millisecond

var namedKeys = map[string]string{
	"ESC":       kb.Escape,
	"ESCAPE":    kb.Escape,
	"ENTER":     kb.Enter,
	"RETURN":    kb.Enter,
	"SPACE":     " ",
	"TAB":       kb.Tab,
	"BACKSPACE": kb.Backspace,
	"DELETE":    kb.Delete,
}

// keyFor maps a configured key name to what chromedp.KeyEvent expects.
// Unknown names are sent as their lower-cased text, so "Q" presses q.
func keyFor(name string) string {
	if k, ok := namedKeys[strings.ToUpper(name)]; ok {
		return k
	}
	return strings.ToLower(name)
}

// skipActions focuses the page and then presses every key of seq with a
// short pause between presses.
func skipActions(seq []string) []chromedp.Action {
	actions := []chromedp.Action{
		chromedp.Click("body", chromedp.ByQuery),
	}
	for _, name := range seq {
		actions = append(actions,
			chromedp.KeyEvent(keyFor(name)),
			chromedp.Sleep(keyPause),
		)
	}
	return actions
}

const checkboxScript = `(() => {
	let clicked = 0;
	document.querySelectorAll('input[type="checkbox"]').forEach((box) => {
		if (!box.checked) { box.click(); clicked++; }
	});
	return clicked;
})()`

func volumeScript(level int) string {
	return fmt.Sprintf(`(() => {
	const s = document.getElementById('vol-control');
	if (!s) { return false; }
	s.value = %d;
	s.dispatchEvent(new Event('input', {bubbles: true}));
	return true;
})()`, level)
}

// relaySelectors are tried in order; the first visible match gets the relay text.
var relaySelectors = []string{"textarea.chat-msg", "textarea.messageInput", "textarea"}

const relayText = "/relay"

const (
	reportButtonXPath = `//img[@alt='Report' and contains(@class, 'reportButton')]`
	reportConfirmID   = "#confirmBan"
)
