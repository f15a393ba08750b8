package main

import "fmt"

// User-facing CLI messages ship in English and Japanese. Log output
// stays English; only terminal messages go through the catalog.
var messages = map[string]map[string]string{
	"en": {
		"fetching_info": "Fetching video information...",
		"downloading":   "Downloading: %s",
		"download_done": "Download complete: %s",
		"download_fail": "Download failed: %s",
		"skipped":       "Skipped (invalid or duplicate): %s",
		"converting":    "Converting: %s",
		"convert_done":  "Conversion complete: %s",
		"convert_fail":  "Conversion failed: %s",
		"queued":        "Queued %d task(s)",
		"serving":       "Starting API server on %s",
		"token_issued":  "Token (valid %s):",
		"no_jwt_secret": "No JWT secret configured; set api.jwt_secret or LIVELEAPER_API_JWT_SECRET",
		"progress":      "\r%6.1f%%  %-12s ETA %-8s",
		"cancelled":     "Cancelled",
	},
	"ja": {
		"fetching_info": "動画情報を取得しています...",
		"downloading":   "ダウンロード中: %s",
		"download_done": "ダウンロード完了: %s",
		"download_fail": "ダウンロード失敗: %s",
		"skipped":       "スキップしました（無効または重複）: %s",
		"converting":    "変換中: %s",
		"convert_done":  "変換完了: %s",
		"convert_fail":  "変換失敗: %s",
		"queued":        "%d 件のタスクを登録しました",
		"serving":       "APIサーバーを %s で起動します",
		"token_issued":  "トークン（有効期限 %s）:",
		"no_jwt_secret": "JWTシークレットが未設定です。api.jwt_secret か LIVELEAPER_API_JWT_SECRET を設定してください",
		"progress":      "\r%6.1f%%  %-12s 残り %-8s",
		"cancelled":     "キャンセルしました",
	},
}

var language = "en"

func setLanguage(lang string) {
	if _, ok := messages[lang]; ok {
		language = lang
	}
}

func tr(key string) string {
	if msg, ok := messages[language][key]; ok {
		return msg
	}
	return messages["en"][key]
}

func sayf(key string, args ...interface{}) {
	fmt.Printf(tr(key)+"\n", args...)
}
