package recurring

// DefaultLexicon returns the built-in merchant and service labels.
func DefaultLexicon() []LexiconEntry {
	return []LexiconEntry{
		// Streaming and media
		{Match: "netflix", Label: "Netflix", Priority: 100},
		{Match: "spotify", Label: "Spotify", Priority: 100},
		{Match: "hulu", Label: "Hulu", Priority: 100},
		{Match: "disney+", Label: "Disney+", Priority: 100},
		{Match: "disney plus", Label: "Disney+", Priority: 100},
		{Match: "hbo", Label: "HBO Max", Priority: 90},
		{Match: "youtube premium", Label: "YouTube Premium", Priority: 100},
		{Match: "youtube", Label: "YouTube", Priority: 80},
		{Match: "apple music", Label: "Apple Music", Priority: 100},
		{Match: "apple.com/bill", Label: "Apple Services", Priority: 90},
		{Match: "itunes", Label: "Apple Services", Priority: 90},
		{Match: "prime video", Label: "Prime Video", Priority: 100},
		{Match: "amazon prime", Label: "Amazon Prime", Priority: 95},
		{Match: "audible", Label: "Audible", Priority: 100},
		{Match: "twitch", Label: "Twitch", Priority: 100},

		// Software and cloud
		{Match: "github", Label: "GitHub", Priority: 100},
		{Match: "dropbox", Label: "Dropbox", Priority: 100},
		{Match: "google storage", Label: "Google One", Priority: 100},
		{Match: "google one", Label: "Google One", Priority: 100},
		{Match: "icloud", Label: "iCloud", Priority: 100},
		{Match: "microsoft 365", Label: "Microsoft 365", Priority: 100},
		{Match: "office 365", Label: "Microsoft 365", Priority: 100},
		{Match: "adobe", Label: "Adobe", Priority: 90},
		{Match: "openai", Label: "OpenAI", Priority: 100},
		{Match: "chatgpt", Label: "ChatGPT", Priority: 100},
		{Match: "anthropic", Label: "Anthropic", Priority: 100},
		{Match: "notion", Label: "Notion", Priority: 90},
		{Match: "slack", Label: "Slack", Priority: 90},
		{Match: "zoom.us", Label: "Zoom", Priority: 100},
		{Match: "1password", Label: "1Password", Priority: 100},

		// Utilities and telecom
		{Match: "comcast", Label: "Comcast", Priority: 90},
		{Match: "xfinity", Label: "Xfinity", Priority: 90},
		{Match: "verizon", Label: "Verizon", Priority: 90},
		{Match: "at&t", Label: "AT&T", Priority: 90},
		{Match: "t-mobile", Label: "T-Mobile", Priority: 90},
		{Match: "electric", Label: "Electricity", Priority: 50},
		{Match: "water", Label: "Water", Priority: 40},
		{Match: "internet", Label: "Internet", Priority: 40},

		// Housing, insurance, fitness
		{Match: "rent payment", Label: "Rent", Priority: 60},
		{Match: "mortgage", Label: "Mortgage", Priority: 60},
		{Match: "geico", Label: "GEICO", Priority: 90},
		{Match: "state farm", Label: "State Farm", Priority: 90},
		{Match: "progressive", Label: "Progressive", Priority: 90},
		{Match: "insurance", Label: "Insurance", Priority: 50},
		{Match: "planet fitness", Label: "Planet Fitness", Priority: 100},
		{Match: "equinox", Label: "Equinox", Priority: 100},
		{Match: "peloton", Label: "Peloton", Priority: 100},
		{Match: "gym", Label: "Gym Membership", Priority: 40},

		// Income
		{Match: "payroll", Label: "Salary", Priority: 70},
		{Match: "salary", Label: "Salary", Priority: 70},
		{Match: "direct dep", Label: "Salary", Priority: 60},
		{Match: "interest", Label: "Interest", Priority: 50},
		{Match: "dividend", Label: "Dividends", Priority: 50},
	}
}
