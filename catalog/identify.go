package catalog

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// UnknownDrug is reported when no known name appears in the file name
const UnknownDrug = "Unknown - Image recognition model not implemented yet"

// knownDrugs is scanned in order; the first entry contained in the file name wins.
var knownDrugs = []string{
	"calcitriol", "humalog", "candid", "honitus", "sitagliptin", "permite", "atorvastatin",
	"empagliflozin", "insulin lispro", "acetaminophen", "norfloxacin", "phenergan", "moov", "cetaphil",
	"metoprolol", "neurobion forte", "volini", "cyclopam", "cough syrup", "zandu balm", "torex",
	"methylcobalamin", "grilinctus", "buscopan", "omeprazole", "cetirizine", "sporlac", "zincovit",
	"theophylline", "rosuvastatin", "paracetamol", "dolo 650", "digene", "calpol", "crocin", "aspirin",
	"pantoprazole", "rantac", "domperidone", "meftal spas", "allegra", "metformin", "losartan",
	"levocetirizine", "diclofenac", "ciprofloxacin", "ondansetron", "telmisartan", "benadryl", "t-minic",
	"combiflam", "becosules", "loperamide", "electral", "ecosprin", "montair lc", "sinarest", "loratadine",
	"amoxicillin", "azithromycin", "dexamethasone", "fluconazole", "neosporin", "hydrocortisone", "vitamin c",
	"iron", "calcium", "b-complex", "folic acid", "rabeprazole", "esomeprazole", "lansoprazole", "sucralfate",
	"tramadol", "codeine", "salbutamol", "montelukast", "levofloxacin", "moxifloxacin", "tetracycline",
	"doxycycline", "clarithromycin", "ketoconazole", "terbinafine", "itraconazole", "olmesartan", "amlodipine",
	"propranolol", "atenolol", "spironolactone", "furosemide", "lisinopril", "enalapril", "ramipril",
	"simvastatin", "fenofibrate", "gemfibrozil", "glimepiride", "gliclazide", "pioglitazone", "vildagliptin",
	"linagliptin", "canagliflozin", "dapagliflozin", "insulin glargine", "insulin aspart", "novorapid",
	"humulin", "vicks", "relent", "ascoril", "tusq", "koflet", "seven seas", "liv 52", "omez", "gaviscon",
	"anaspas", "mebeverine", "zantac", "perinorm", "motilium", "emeset", "vomikind", "vomidon", "vomistop",
	"nasivion", "otrivin", "xylometazoline", "avil", "tavegyl", "azee", "taxim", "monocef", "cefixime",
	"cefpodoxime", "augmentin", "clavam", "flagyl", "tinidazole", "nitrofurantoin", "bactrim", "septran",
	"uribid", "citralka", "alkasol", "spasmo-proxyvon", "iodex", "sensodyne", "colgate", "listerine",
	"dettol", "savlon", "betnovate", "lulifin", "onabet", "surfaz", "dermocalm", "clocip", "itch guard",
	"ring guard", "scaboma",
}

// IdentifyByFilename is a stand-in for image recognition: it looks for a known
// drug name inside the uploaded file name. No file content is inspected.
func (c *Catalog) IdentifyByFilename(filename string) string {
	return IdentifyByFilename(filename)
}

// IdentifyByFilename reports the first known drug name contained in filename,
// capitalized, or UnknownDrug.
func IdentifyByFilename(filename string) string {
	lower := strings.ToLower(filename)
	for _, drug := range knownDrugs {
		if strings.Contains(lower, drug) {
			return capitalize(drug)
		}
	}
	return UnknownDrug
}

// capitalize upper-cases the first rune and lower-cases the rest
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
