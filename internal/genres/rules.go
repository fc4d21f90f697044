package genres

// Split buckets used for the genre-split monthly and yearly playlists.
const (
	HipHop = "HipHop"
	Dance  = "Dance"
	Other  = "Other"
)

// SplitBuckets lists the split buckets in the order they are tested. [Other] is the fallback.
var SplitBuckets = []string{HipHop, Dance, Other}

type rule struct {
	Bucket   string
	Keywords []string
}

var splitRules = []rule{
	{HipHop, []string{
		"hip hop", "rap", "trap", "drill", "grime", "crunk", "phonk",
		"boom bap", "dirty south", "gangsta", "melodic rap",
		"uk drill", "uk hip hop", "uk rap", "chicago drill", "brooklyn drill",
		"atlanta hip hop", "southern hip hop", "east coast hip hop", "west coast hip hop",
		"memphis hip hop", "houston rap", "detroit hip hop", "miami bass",
		"french hip hop", "german hip hop", "australian hip hop", "canadian hip hop",
		"conscious hip hop", "underground hip hop", "alternative hip hop",
		"experimental hip hop", "abstract hip hop", "political hip hop",
		"jazz rap", "lo-fi hip hop", "cloud rap", "emo rap", "rage rap",
		"plugg", "pluggnb", "hyperpop rap", "glitch hop",
		"old school hip hop", "golden age hip hop", "new school hip hop",
		"mumble rap", "lyrical rap", "battle rap", "horrorcore",
		"chopped and screwed", "hyphy", "snap music", "bounce",
		"g-funk", "gangster rap", "hardcore hip hop", "mafioso rap",
		"nerdcore", "christian hip hop", "gospel rap",
		"afro trap", "latin trap", "reggaeton trap",
	}},
	{Dance, []string{
		"house", "deep house", "tech house", "progressive house", "future house",
		"bass house", "electro house", "big room", "tropical house", "melodic house",
		"afro house", "soulful house", "funky house", "disco house", "french house",
		"chicago house", "acid house", "minimal house", "microhouse",
		"techno", "minimal techno", "detroit techno", "dub techno", "acid techno",
		"hard techno", "industrial techno", "melodic techno", "peak time techno",
		"trance", "progressive trance", "uplifting trance", "vocal trance",
		"psytrance", "goa trance", "hard trance", "tech trance", "acid trance",
		"dubstep", "brostep", "riddim", "melodic dubstep", "future bass",
		"drum and bass", "liquid dnb", "jungle", "neurofunk", "jump up",
		"breakbeat", "uk breakbeat", "big beat",
		"edm", "electronic", "electronica", "dance", "dance pop",
		"complextro", "moombahton", "trap edm", "festival",
		"uk garage", "2-step", "speed garage", "bassline", "uk bass",
		"grime", "uk funky", "jersey club",
		"hardstyle", "hardcore", "gabber", "happy hardcore", "frenchcore",
		"hard dance", "hard house", "jumpstyle",
		"ambient", "downtempo", "chillout", "chillwave", "lo-fi beats",
		"trip hop", "dub", "idm", "glitch",
		"synthwave", "retrowave", "darksynth", "outrun", "vaporwave",
		"synthpop", "electropop", "eurodance", "italo disco",
		"electro", "electro swing", "nu disco", "disco", "space disco",
		"leftfield", "experimental electronic", "industrial",
	}},
}

// Broad buckets used for master genre playlists, in rule order.
var broadRules = []rule{
	{"Hip-Hop", []string{
		"hip hop", "rap", "trap", "drill", "grime", "crunk", "boom bap", "dirty south", "phonk",
		"uk drill", "uk hip hop", "uk rap", "chicago drill", "brooklyn drill",
		"atlanta hip hop", "southern hip hop", "east coast hip hop", "west coast hip hop",
		"memphis hip hop", "houston rap", "detroit hip hop", "miami bass",
		"conscious hip hop", "underground hip hop", "alternative hip hop",
		"experimental hip hop", "jazz rap", "cloud rap", "emo rap", "rage rap",
		"plugg", "pluggnb", "old school hip hop", "golden age hip hop",
		"mumble rap", "lyrical rap", "battle rap", "horrorcore",
		"chopped and screwed", "hyphy", "snap music", "bounce",
		"g-funk", "gangster rap", "hardcore hip hop", "mafioso rap",
		"nerdcore", "afro trap", "latin trap",
	}},
	{"R&B/Soul", []string{
		"r&b", "rnb", "soul", "neo soul", "funk", "motown", "disco",
		"contemporary r&b", "alternative r&b", "new jack swing",
		"quiet storm", "urban contemporary", "rhythm and blues",
		"psychedelic soul", "northern soul", "southern soul", "blue-eyed soul",
		"philly soul", "memphis soul", "chicago soul", "deep funk",
		"p-funk", "go-go", "boogie", "electrofunk",
		"gospel", "christian", "worship", "ccm",
	}},
	{"Electronic", []string{
		"electronic", "edm", "house", "techno", "trance", "dubstep", "drum and bass",
		"deep house", "tech house", "progressive house", "future house", "bass house",
		"electro house", "big room", "tropical house", "melodic house",
		"minimal techno", "detroit techno", "dub techno", "melodic techno",
		"progressive trance", "uplifting trance", "psytrance", "goa trance",
		"future bass", "liquid dnb", "jungle", "neurofunk",
		"breakbeat", "uk garage", "bassline", "uk bass",
		"hardstyle", "hardcore", "gabber", "happy hardcore",
		"ambient", "downtempo", "chillout", "trip hop", "idm",
		"synthwave", "retrowave", "vaporwave", "electropop",
		"electro", "electro swing", "nu disco", "eurodance",
	}},
	{"Rock", []string{
		"rock", "alternative", "grunge", "punk", "emo", "post-punk", "shoegaze",
		"alternative rock", "indie rock", "hard rock", "classic rock", "soft rock",
		"progressive rock", "psychedelic rock", "art rock", "experimental rock",
		"garage rock", "surf rock", "blues rock", "southern rock",
		"punk rock", "pop punk", "hardcore punk", "post-hardcore", "skate punk",
		"screamo", "midwest emo", "emo pop",
		"noise rock", "stoner rock", "desert rock",
		"post-rock", "math rock", "noise", "industrial rock",
		"new wave", "post-punk revival", "gothic rock", "darkwave",
		"britpop", "madchester", "jangle pop", "power pop",
	}},
	{"Metal", []string{
		"metal", "heavy metal", "death metal", "black metal", "thrash",
		"thrash metal", "speed metal", "power metal", "progressive metal",
		"doom metal", "sludge metal", "stoner metal", "drone metal",
		"melodic death metal", "technical death metal", "deathcore",
		"atmospheric black metal", "symphonic black metal",
		"metalcore", "melodic metalcore", "djent", "nu metal", "rap metal",
		"symphonic metal", "gothic metal", "folk metal", "viking metal",
		"industrial metal", "groove metal", "glam metal", "hair metal",
		"grindcore", "goregrind", "mathcore", "chaotic hardcore",
	}},
	{"Indie", []string{
		"indie", "indie rock", "indie pop", "lo-fi", "dream pop",
		"indie folk", "indie electronic", "indietronica",
		"bedroom pop", "art pop", "chamber pop", "baroque pop",
		"folktronica", "freak folk", "anti-folk",
		"slowcore", "sadcore", "shoegaze", "nu gaze",
		"chillwave", "glo-fi", "hypnagogic pop",
		"twee pop", "c86", "sarah records",
	}},
	{"Pop", []string{
		"pop", "dance pop", "synth pop", "electropop", "hyperpop",
		"teen pop", "bubblegum pop", "europop", "latin pop",
		"k-pop", "j-pop", "c-pop", "mandopop", "cantopop",
		"art pop", "experimental pop", "avant-pop",
		"adult contemporary", "soft rock", "easy listening",
		"boy band", "girl group", "idol",
	}},
	{"Latin", []string{
		"latin", "reggaeton", "salsa", "bachata", "cumbia",
		"latin pop", "latin hip hop", "latin trap", "urbano latino",
		"dembow", "perreo", "moombahton",
		"merengue", "vallenato", "norteño", "banda", "corridos",
		"tango", "flamenco", "bossa nova", "samba", "mpb",
		"latin rock", "rock en español", "latin alternative",
		"mariachi", "ranchera", "bolero", "son cubano",
		"timba", "mambo", "cha-cha-cha",
		"brazilian", "forró", "axé", "pagode", "sertanejo",
	}},
	{"World", []string{
		"afrobeat", "afrobeats", "afropop", "afro house", "amapiano",
		"highlife", "juju", "fuji", "afro funk", "afro soul",
		"reggae", "dancehall", "dub", "roots reggae", "lovers rock",
		"ska", "rocksteady", "ragga", "bashment",
		"soca", "calypso", "chutney", "zouk", "kompa",
		"world", "world music", "global", "ethnic", "traditional",
		"african", "west african", "east african", "south african",
		"kwaito", "gqom", "shangaan electro", "township",
		"arabic", "middle eastern", "persian", "turkish",
		"indian", "bollywood", "bhangra", "filmi", "desi",
		"asian", "chinese", "japanese", "korean", "vietnamese",
	}},
	{"Jazz", []string{
		"jazz", "smooth jazz", "bebop", "swing", "big band",
		"cool jazz", "hard bop", "modal jazz", "free jazz",
		"fusion", "jazz fusion", "jazz funk", "acid jazz",
		"vocal jazz", "jazz vocal", "jazz blues",
		"latin jazz", "afro-cuban jazz", "bossa nova",
		"contemporary jazz", "modern jazz", "nu jazz",
		"avant-garde jazz", "experimental jazz",
		"dixieland", "new orleans jazz", "ragtime",
		"soul jazz", "jazz soul", "spiritual jazz",
	}},
	{"Classical", []string{
		"classical", "orchestra", "symphony", "opera",
		"baroque", "romantic", "classical period", "modern classical",
		"contemporary classical", "minimalism", "post-minimalism",
		"chamber music", "string quartet", "piano", "violin",
		"orchestral", "symphonic", "philharmonic",
		"choral", "choir", "a cappella", "gregorian",
		"operetta", "musical theater", "broadway",
		"soundtrack", "film score", "cinematic",
		"neoclassical", "neo-romantic", "avant-garde classical",
	}},
	{"Country/Folk", []string{
		"country", "folk", "americana", "bluegrass",
		"country pop", "country rock", "alt-country", "outlaw country",
		"contemporary country", "traditional country", "honky tonk",
		"nashville sound", "countrypolitan", "bro-country",
		"folk rock", "contemporary folk", "traditional folk",
		"singer-songwriter", "acoustic", "unplugged",
		"newgrass", "progressive bluegrass",
		"old-time", "appalachian", "mountain music",
		"celtic", "irish", "scottish", "english folk",
		"nordic", "scandinavian", "viking",
	}},
	{"Blues", []string{
		"blues", "electric blues", "acoustic blues", "delta blues",
		"chicago blues", "texas blues", "west coast blues",
		"blues rock", "modern blues", "contemporary blues",
		"soul blues", "rhythm and blues", "jump blues",
		"country blues", "piedmont blues", "swamp blues",
	}},
}

// BroadBuckets returns the names of the broad buckets in rule order.
func BroadBuckets() []string {
	out := make([]string, len(broadRules))
	for i, r := range broadRules {
		out[i] = r.Bucket
	}
	return out
}
