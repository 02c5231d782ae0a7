package model

// Coordinates is a latitude/longitude pair for a city.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// cityCoordinates is the static lookup table of Philippine cities covered by
// the observation feed. Cities absent from it default to (0, 0).
var cityCoordinates = map[string]Coordinates{
	"Alaminos": {16.1561, 119.9811},
	"Angeles City": {15.15, 120.5833},
	"Antipolo": {15.6181, 121.19},
	"Bacolod": {12.2285, 123.5085},
	"Bacoor": {14.459, 120.929},
	"Bago City": {10.5333, 122.8333},
	"Baguio": {16.4164, 120.5931},
	"Bais": {9.5911, 123.1228},
	"Balanga": {14.6761, 120.5361},
	"Batac City": {18.0554, 120.5649},
	"Batangas City": {13.75, 121.05},
	"Bayawan": {9.3636, 122.8011},
	"Baybay": {13.4083, 123.7135},
	"Bayugan": {8.7561, 125.7675},
	"Bislig": {11.0725, 125.0336},
	"Biñan": {14.3427, 121.0807},
	"Bogo": {11.0517, 124.0055},
	"Borongan": {11.6081, 125.4319},
	"Butuan": {8.9492, 125.5436},
	"Cabadbaran": {9.1236, 125.5344},
	"Cabanatuan City": {15.4833, 120.9667},
	"Cabuyao": {14.2726, 121.1262},
	"Cadiz": {10.9506, 123.2856},
	"Cagayan de Oro": {8.4822, 124.6472},
	"Calaca": {13.9324, 120.8133},
	"Calamba": {14.2117, 121.1653},
	"Calapan": {13.4117, 121.1803},
	"Calbayog City": {12.0667, 124.6},
	"Caloocan City": {14.65, 120.9667},
	"Candon": {17.1947, 120.4517},
	"Canlaon": {10.3864, 123.1964},
	"Carcar": {10.1061, 123.6402},
	"Carmona": {14.3132, 121.0576},
	"Catbalogan": {11.7753, 124.8861},
	"Cauayan": {16.9347, 121.7725},
	"Cavite City": {14.4825, 120.9169},
	"Cebu City": {10.3167, 123.8907},
	"City of Marikina": {14.6333, 121.1},
	"City of Masbate": {12.3333, 123.5833},
	"City of Passi": {11.15, 122.65},
	"City of Sorsogon": {12.9833, 123.9833},
	"Cotabato": {7.2236, 124.2464},
	"Dagupan": {17.7061, 121.5047},
	"Danao": {10.5208, 124.0272},
	"Dapitan": {10.2706, 123.9469},
	"Dasmariñas": {14.3294, 120.9367},
	"Davao": {7.0731, 125.6128},
	"Digos": {6.7497, 125.3572},
	"Dipolog": {8.5894, 123.3414},
	"Dumaguete": {9.3103, 123.3081},
	"El Salvador": {8.5631, 124.5225},
	"Escalante": {10.8403, 123.4992},
	"Gapan": {15.3072, 120.9464},
	"General Santos": {6.1128, 125.1717},
	"General Trias": {14.3869, 120.8817},
	"Gingoog City": {8.8333, 125.1167},
	"Himamaylan": {10.0989, 122.8706},
	"Ilagan": {17.1485, 121.8892},
	"Iligan City": {8.25, 124.4},
	"Iloilo City": {10.75, 122.55},
	"Imus": {14.4297, 120.9367},
	"Iriga City": {13.4167, 123.4167},
	"Isabela": {10.2048, 122.9888},
	"Kabankalan": {9.9889, 122.8122},
	"Kidapawan": {7.0083, 125.0894},
	"Koronadal": {6.5031, 124.8469},
	"La Carlota": {10.4233, 122.9208},
	"Lamitan": {6.0872, 125.7022},
	"Laoag": {18.1989, 120.5936},
	"Lapu-Lapu City": {10.3103, 123.9494},
	"Las Piñas": {14.4506, 120.9828},
	"Legazpi City": {13.1333, 123.7333},
	"Ligao": {13.2403, 123.5325},
	"Lipa City": {13.95, 121.1667},
	"Lucena": {10.8794, 122.5967},
	"Maasin": {10.8925, 122.4347},
	"Mabalacat City": {15.2216, 120.5736},
	"Makati City": {14.5503, 121.0327},
	"Malabon": {15.6361, 119.9379},
	"Malaybalay": {8.15, 125.0833},
	"Malolos": {14.8419, 120.8117},
	"Mandaluyong City": {14.5832, 121.0409},
	"Mandaue City": {10.3333, 123.9333},
	"Manila": {14.6042, 120.9822},
	"Marawi": {7.9986, 124.2928},
	"Mati": {9.7339, 125.4708},
	"Meycauayan": {14.7369, 120.9608},
	"Muñoz": {15.7161, 120.9031},
	"Naga": {13.6192, 123.1814},
	"Navotas": {14.6667, 120.95},
	"Olongapo": {14.8292, 120.2828},
	"Ormoc": {11.0064, 124.6075},
	"Oroquieta": {8.4858, 123.8044},
	"Ozamiz City": {8.15, 123.8333},
	"Pagadian": {7.8257, 123.437},
	"Palayan City": {15.55, 121.0833},
	"Panabo": {7.3081, 125.6842},
	"Paranaque City": {14.4816, 121.0175},
	"Pasig": {14.587, 121.065},
	"Puerto Princesa City": {9.7333, 118.7333},
	"Quezon City": {14.6333, 121.0333},
	"Roxas": {17.1189, 121.6201},
	"Sagay": {10.9447, 123.4242},
	"Samal": {14.7678, 120.5431},
	"San Carlos": {15.5448, 120.8931},
	"San Fernando": {16.6159, 120.3166},
	"San Jose": {17.8927, 121.8712},
	"San Jose del Monte": {14.8139, 121.0453},
	"San Juan": {17.7422, 120.4583},
	"San Pablo": {14.9696, 120.6197},
	"San Pedro": {17.2, 121.8833},
	"Santa Rosa": {15.4238, 120.9378},
	"Santiago": {17.2939, 120.4449},
	"Santo Tomas": {17.3997, 121.7645},
	"Silay City": {10.8, 122.9667},
	"Sipalay": {9.7519, 122.4042},
	"Surigao City": {9.75, 125.5},
	"Tabaco": {13.3586, 123.7336},
	"Tabuk": {17.4189, 121.4443},
	"Tacloban City": {11.25, 125.0},
	"Tacurong": {6.6925, 124.6764},
	"Tagaytay City": {14.1059, 120.9337},
	"Taguig": {14.5243, 121.0792},
	"Talisay": {14.1343, 122.9226},
	"Tanauan": {14.0863, 121.1498},
	"Tandag": {9.0783, 126.1986},
	"Tangub": {10.6339, 122.9306},
	"Tanjay": {9.5153, 123.1583},
	"Tarlac City": {15.4889, 120.5986},
	"Tayabas": {14.0289, 121.5911},
	"Toledo City": {10.3833, 123.6333},
	"Tuguegarao": {17.6131, 121.7269},
	"Urdaneta": {15.9761, 120.5711},
	"Valencia": {11.1089, 124.5725},
	"Valenzuela": {14.7, 120.9667},
	"Victorias": {10.9, 123.0778},
	"Vigan": {17.5747, 120.3869},
	"Zamboanga City": {6.9135, 122.0696},
}

// LookupCoordinates returns the coordinates for a city and whether the city
// is present in the lookup table. Unknown cities get (0, 0).
func LookupCoordinates(city string) (Coordinates, bool) {
	c, ok := cityCoordinates[city]
	return c, ok
}
