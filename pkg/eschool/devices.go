package eschool

import "math/rand"

// deviceModels is a catalog of real-world Android device names used to
// randomize the synthetic login telemetry. The list is plain data; shrinking
// or extending it only changes the statistical spread of reported models.
var deviceModels = []string{
	"Samsung SM-G998B", "Samsung SM-G991B", "Samsung SM-G996B", "Samsung SM-S901B",
	"Samsung SM-S906B", "Samsung SM-S908B", "Samsung SM-S911B", "Samsung SM-S916B",
	"Samsung SM-S918B", "Samsung SM-S921B", "Samsung SM-S926B", "Samsung SM-S928B",
	"Samsung SM-G980F", "Samsung SM-G985F", "Samsung SM-G988B", "Samsung SM-G781B",
	"Samsung SM-N980F", "Samsung SM-N986B", "Samsung SM-N975F", "Samsung SM-N770F",
	"Samsung SM-G973F", "Samsung SM-G975F", "Samsung SM-G770F", "Samsung SM-F711B",
	"Samsung SM-F926B", "Samsung SM-F721B", "Samsung SM-F936B", "Samsung SM-F731B",
	"Samsung SM-A525F", "Samsung SM-A528B", "Samsung SM-A536B", "Samsung SM-A546B",
	"Samsung SM-A556B", "Samsung SM-A725F", "Samsung SM-A736B", "Samsung SM-A356B",
	"Samsung Galaxy A03s", "Samsung Galaxy A04s", "Samsung Galaxy A05s",
	"Samsung Galaxy A12", "Samsung Galaxy A13", "Samsung Galaxy A14", "Samsung Galaxy A15",
	"Samsung Galaxy A21s", "Samsung Galaxy A22", "Samsung Galaxy A23", "Samsung Galaxy A24",
	"Samsung Galaxy A31", "Samsung Galaxy A41", "Samsung Galaxy A51", "Samsung Galaxy A52",
	"Samsung Galaxy A71", "Samsung Galaxy M12", "Samsung Galaxy M21", "Samsung Galaxy M31",
	"Samsung Galaxy M32", "Samsung Galaxy M33 5G", "Samsung Galaxy M52 5G",
	"Samsung Galaxy F23 5G", "Samsung Galaxy F41", "Samsung Galaxy XCover 5",
	"Google Pixel 4", "Google Pixel 4a", "Google Pixel 5", "Google Pixel 5a",
	"Google Pixel 6", "Google Pixel 6 Pro", "Google Pixel 6a",
	"Google Pixel 7", "Google Pixel 7 Pro", "Google Pixel 7a",
	"Google Pixel 8", "Google Pixel 8 Pro", "Google Pixel 8a", "Google Pixel Fold",
	"Xiaomi Mi 11", "Xiaomi Mi 11 Lite", "Xiaomi 11T", "Xiaomi 11T Pro",
	"Xiaomi 12", "Xiaomi 12 Pro", "Xiaomi 12X", "Xiaomi 12T", "Xiaomi 12 Lite",
	"Xiaomi 13", "Xiaomi 13 Pro", "Xiaomi 13 Lite", "Xiaomi 13T", "Xiaomi 13T Pro",
	"Xiaomi 14", "Xiaomi 14 Pro", "Xiaomi 14 Ultra", "Xiaomi Mi 10T", "Xiaomi Mi 10T Pro",
	"Xiaomi Mi 9T", "Xiaomi Mi Note 10", "Xiaomi Mix 4",
	"Redmi Note 10", "Redmi Note 10 Pro", "Redmi Note 10S",
	"Redmi Note 11", "Redmi Note 11 Pro", "Redmi Note 11S",
	"Redmi Note 12", "Redmi Note 12 Pro", "Redmi Note 12 Turbo",
	"Redmi Note 13", "Redmi Note 13 Pro", "Redmi Note 13 Pro+",
	"Redmi Note 9", "Redmi Note 9 Pro", "Redmi Note 8 Pro",
	"Redmi 13C", "Redmi 12", "Redmi 10", "Redmi 10C", "Redmi 9", "Redmi 9T",
	"Redmi K60", "Redmi K50", "Redmi K40", "Redmi A2",
	"POCO F3", "POCO F4", "POCO F5", "POCO F5 Pro", "POCO F6",
	"POCO X3 Pro", "POCO X4 Pro 5G", "POCO X5", "POCO X5 Pro", "POCO X6", "POCO X6 Pro",
	"POCO M4 Pro", "POCO M5", "POCO M6 Pro", "POCO C65",
	"Black Shark 5", "Black Shark 4 Pro",
	"OnePlus 8", "OnePlus 8 Pro", "OnePlus 8T", "OnePlus 9", "OnePlus 9 Pro",
	"OnePlus 10 Pro", "OnePlus 10T", "OnePlus 11", "OnePlus 12", "OnePlus 12R",
	"OnePlus Nord 2", "OnePlus Nord 3", "OnePlus Nord CE 3", "OnePlus Nord CE 2 Lite",
	"Realme GT 2", "Realme GT 2 Pro", "Realme GT 3", "Realme GT Neo 3",
	"Realme 8 Pro", "Realme 9 Pro+", "Realme 10 Pro", "Realme 11 Pro", "Realme 12 Pro+",
	"Realme C25s", "Realme C33", "Realme C55", "Realme C67",
	"Realme Narzo 50", "Realme Narzo 60", "Realme X50 Pro",
	"Oppo Find X3 Pro", "Oppo Find X5", "Oppo Find X5 Pro", "Oppo Find X6 Pro",
	"Oppo Reno 6", "Oppo Reno 7", "Oppo Reno 8", "Oppo Reno 8 Pro",
	"Oppo Reno 10", "Oppo Reno 10 Pro", "Oppo Reno 11",
	"Oppo A54", "Oppo A57", "Oppo A74", "Oppo A78", "Oppo A98", "Oppo K10",
	"Vivo X60 Pro", "Vivo X70 Pro", "Vivo X80", "Vivo X90 Pro", "Vivo X100",
	"Vivo V21", "Vivo V23", "Vivo V25", "Vivo V27", "Vivo V29", "Vivo V30",
	"Vivo Y21", "Vivo Y33s", "Vivo Y36", "Vivo Y72 5G", "Vivo T1 5G", "Vivo T2",
	"iQOO 9", "iQOO 11", "iQOO 12", "iQOO Neo 7", "iQOO Neo 8", "iQOO Z6", "iQOO Z7", "iQOO Z9",
	"Sony Xperia 1 III", "Sony Xperia 5 III", "Sony Xperia 10 III",
	"Sony Xperia 1 IV", "Sony Xperia 5 IV", "Sony Xperia 10 IV",
	"Sony Xperia 1 V", "Sony Xperia 5 V", "Sony Xperia 10 V",
	"Asus Zenfone 8", "Asus Zenfone 9", "Asus Zenfone 10",
	"Asus ROG Phone 5", "Asus ROG Phone 6", "Asus ROG Phone 7", "Asus ROG Phone 8",
	"Motorola Edge 20", "Motorola Edge 30", "Motorola Edge 30 Neo",
	"Motorola Edge 40", "Motorola Edge 40 Pro", "Motorola Edge 50 Pro",
	"Motorola Moto G50", "Motorola Moto G60", "Motorola Moto G52", "Motorola Moto G72",
	"Motorola Moto G84", "Motorola Moto G14", "Motorola Moto G34",
	"Motorola Razr 40", "Motorola Razr 40 Ultra",
	"Nothing Phone (1)", "Nothing Phone (2)", "Nothing Phone (2a)",
	"Honor 50", "Honor 70", "Honor 90", "Honor 90 Lite",
	"Honor Magic 4 Pro", "Honor Magic 5 Pro", "Honor Magic 6 Pro",
	"Honor X7a", "Honor X8a", "Honor X9a", "Honor X9b",
	"Huawei P40 Pro", "Huawei P50 Pro", "Huawei P60 Pro",
	"Huawei Mate 40 Pro", "Huawei Mate 50 Pro", "Huawei Mate 60 Pro",
	"Huawei Nova 9", "Huawei Nova 10", "Huawei Nova 11", "Huawei Nova Y90",
	"Tecno Spark 10 Pro", "Tecno Spark 20", "Tecno Camon 19", "Tecno Camon 20",
	"Tecno Pova 5", "Tecno Phantom X2",
	"Infinix Hot 30", "Infinix Hot 40 Pro", "Infinix Note 12", "Infinix Note 30",
	"Infinix Zero 30", "Infinix GT 10 Pro",
	"ZTE Axon 30 Ultra", "ZTE Axon 40 Ultra", "ZTE Nubia Z50",
	"ZTE RedMagic 7", "ZTE RedMagic 8 Pro", "ZTE Blade V40",
	"LG Velvet", "LG Wing", "LG V60 ThinQ",
	"Nokia X20", "Nokia XR20", "Nokia G60", "Nokia G42", "Nokia C32", "Nokia 8.3 5G",
	"HTC U23 Pro", "HTC Desire 22 Pro",
	"Sharp Aquos R7", "Sharp Aquos Sense 7",
	"Fairphone 4", "Fairphone 5",
	"Microsoft Surface Duo 2",
	"Lenovo Legion Y70", "Lenovo K14 Plus",
	"Meizu 20", "Meizu 21",
	"Ulefone Armor 21", "Blackview BV9300", "Doogee S100", "Cubot KingKong 9",
	"TCL 40 SE", "TCL 30 5G", "TCL 20 Pro 5G", "Cat S75", "Cat S62 Pro",
}

func randomDeviceModel() string {
	return deviceModels[rand.Intn(len(deviceModels))]
}
