package signals

// Classification keyword tables. These are deliberately plain data so tests
// can exercise the matching logic against fixtures without touching it.

// MixerPatterns match known mixing/tumbling services.
var MixerPatterns = []string{
	"tornado",
	"mixer",
	"tumbler",
	"blend",
	"anonymizer",
}

// BridgePatterns match cross-chain bridge protocols.
var BridgePatterns = []string{
	"wormhole",
	"portal",
	"allbridge",
	"celer",
	"multichain",
	"synapse",
	"stargate",
	"debridge",
	"layerzero",
}

// ExchangePatterns match centralized exchange names.
var ExchangePatterns = []string{
	"binance",
	"coinbase",
	"kraken",
	"ftx",
	"okx",
	"bybit",
	"kucoin",
	"huobi",
	"gate.io",
	"bitfinex",
	"gemini",
	"crypto.com",
	"bitstamp",
	"bitget",
}

// MemeKeywords flag meme-coin naming conventions.
var MemeKeywords = []string{
	"doge", "shib", "pepe", "wojak", "moon", "elon", "inu", "floki",
	"baby", "safe", "rocket", "mars", "chad", "based", "cope", "seethe",
	"wagmi", "gm", "fren", "anon", "ape", "pump", "bonk", "cat", "dog",
}

// TrendyKeywords flag narrative-chasing token names.
var TrendyKeywords = []string{
	"ai", "gpt", "trump", "biden", "maga", "wif", "hat", "meta",
	"nft", "sol", "eth", "btc", "defi", "yield", "stake",
}

// BadActorTags on a wallet identity mark a known offender.
var BadActorTags = []string{
	"scammer",
	"rugger",
	"exploiter",
}
