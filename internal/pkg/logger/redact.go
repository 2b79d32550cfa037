package logger

// RedactName masks a customer name for safe logging.
// "John Smith" → "Jo***"
// Short names (≤2 chars) are fully masked: "Al" → "***"
func RedactName(name string) string {
	if len(name) > 2 {
		return name[:2] + "***"
	}
	return "***"
}

// RedactCookie masks a visitor cookie for safe logging, keeping the first
// UUID group so related log lines can still be correlated.
// "0f71e343-b491-4a4b-a571-6c2f6c0c66e5" → "0f71e343***"
func RedactCookie(cookie string) string {
	if len(cookie) > 8 {
		return cookie[:8] + "***"
	}
	return "***"
}
