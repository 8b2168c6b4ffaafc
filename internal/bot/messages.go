package bot

import "github.com/chiahsuan/eatwhat-linebot-go/internal/buildinfo"

// Command keywords. The first space-separated token of each message line is
// matched exactly against these.
const (
	KeywordPoke      = "戳"
	KeywordList      = "有啥"
	KeywordListToday = "今天有啥"
	KeywordAdd       = "可吃"
	KeywordUpdate    = "改吃"
	KeywordRecommend = "吃啥"
	KeywordRemove    = "不吃"
	KeywordRemoveAll = "都不吃"
	KeywordDump      = "很匯"
	KeywordPickFrom  = "要吃啥"
	KeywordHow       = "怎麼吃"
)

// Fixed replies.
const (
	msgGreeting      = "戳屁戳"
	msgNothing       = "沒有"
	msgUnknown       = "聽不懂"
	msgNameMissing   = "要加哪間？"
	msgRemoveAllDone = "都不吃了"
)

// Greeting returns the poke reply, with the build marker appended when one
// was injected at build time. Also sent when the bot is followed or joins
// a group.
func Greeting() string {
	if v := buildinfo.Short(); v != "dev" {
		return msgGreeting + " " + v
	}
	return msgGreeting
}

func msgAdded(rendered string) string {
	return "好，可吃" + rendered
}

func msgUpdated(rendered string) string {
	return "改好了，" + rendered
}

func msgDuplicate(name string) string {
	return "已經有" + name + "了"
}

func msgNameTooLong(preview string) string {
	return "名字太長了：" + preview + "…"
}

func msgUpdateMissing(name string) string {
	return "沒有" + name + "，先加再改"
}

func msgRemoved(name string) string {
	return "好，不吃" + name + "了"
}

func msgRemoveMissing(name string) string {
	return "本來就沒有" + name
}
