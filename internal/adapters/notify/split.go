package notify

import "strings"

// telegramMessageLimit — максимальная длина одного сообщения Telegram в рунах.
const telegramMessageLimit = 4096

// SplitMessage режет текст на части, укладывающиеся в лимит Telegram.
// Разрез идёт по последнему переводу строки внутри лимита, чтобы не рвать
// абзацы; если переводов строки нет, режем ровно по лимиту.
func SplitMessage(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}

	var parts []string
	for len(runes) > 0 {
		if len(runes) <= telegramMessageLimit {
			if chunk := strings.Trim(string(runes), "\n"); chunk != "" {
				parts = append(parts, chunk)
			}
			break
		}

		cut := telegramMessageLimit
		for i := cut; i > 0; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}

		if chunk := strings.Trim(string(runes[:cut]), "\n"); chunk != "" {
			parts = append(parts, chunk)
		}
		runes = runes[cut:]
		for len(runes) > 0 && runes[0] == '\n' {
			runes = runes[1:]
		}
	}
	return parts
}
