package providers

// stripeCurrencies lists the presentment currencies Stripe documents for card
// payments. The list is reported as-is and never used to reject a request.
var stripeCurrencies = []string{
	"USD", "AED", "AFN", "ALL", "AMD", "ANG", "AOA", "ARS", "AUD", "AWG", "AZN", "BAM",
	"BBD", "BDT", "BGN", "BIF", "BMD", "BND", "BOB", "BRL", "BSD", "BWP", "BYN", "BZD",
	"CAD", "CDF", "CHF", "CLP", "CNY", "COP", "CRC", "CVE", "CZK", "DJF", "DKK", "DOP",
	"DZD", "EGP", "ETB", "EUR", "FJD", "FKP", "GBP", "GEL", "GIP", "GMD", "GNF", "GTQ",
	"GYD", "HKD", "HNL", "HTG", "HUF", "IDR", "ILS", "INR", "ISK", "JMD", "JPY", "KES",
	"KGS", "KHR", "KMF", "KRW", "KYD", "KZT", "LAK", "LBP", "LKR", "LRD", "LSL", "MAD",
	"MDL", "MGA", "MKD", "MMK", "MNT", "MOP", "MUR", "MVR", "MWK", "MXN", "MYR", "MZN",
	"NAD", "NGN", "NIO", "NOK", "NPR", "NZD", "PAB", "PEN", "PGK", "PHP", "PKR", "PLN",
	"PYG", "QAR", "RON", "RSD", "RUB", "RWF", "SAR", "SBD", "SCR", "SEK", "SGD", "SHP",
	"SLE", "SOS", "SRD", "STD", "SZL", "THB", "TJS", "TOP", "TRY", "TTD", "TWD", "TZS",
	"UAH", "UGX", "UYU", "UZS", "VND", "VUV", "WST", "XAF", "XCD", "XOF", "XPF", "YER",
	"ZAR", "ZMW",
}

var stripePaymentMethods = []string{
	"card", "acss_debit", "affirm", "afterpay_clearpay", "alipay", "au_becs_debit",
	"bacs_debit", "bancontact", "blik", "boleto", "cashapp", "customer_balance",
	"eps", "fpx", "giropay", "grabpay", "ideal", "klarna",
	"konbini", "link", "oxxo", "p24", "paynow", "paypal",
	"pix", "promptpay", "sepa_debit", "sofort", "us_bank_account", "wechat_pay",
	"apple_pay", "google_pay",
}

var paystackCurrencies = []string{"NGN", "GHS", "ZAR", "KES", "USD", "XOF", "EGP"}

// paystackPaymentMethods are the channel names Paystack accepts in
// transaction/initialize.
var paystackPaymentMethods = []string{
	"card", "bank", "ussd", "qr", "mobile_money", "bank_transfer", "eft", "apple_pay",
}
