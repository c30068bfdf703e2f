package engine

// Artist is the persona a classroom player is shown as.
type Artist struct {
	Name  string `json:"name"`
	Verse string `json:"verse"`
	Color string `json:"color"`
	Image string `json:"image"`
}

// Artists has one persona per classroom seat.
var Artists = []Artist{
	{Name: "Velvet Echo", Verse: "Turn it up, the bell can wait!", Color: "#643200", Image: "velvet.png"},
	{Name: "DJ Chalkdust", Verse: "Started in the back row, now I run the room!", Color: "#c49159", Image: "chalkdust.png"},
	{Name: "Lil Homework", Verse: "Due tomorrow, done today, straight up!", Color: "#8c5829", Image: "homework.png"},
	{Name: "MC Margin", Verse: "If you know you know, it's in the notes!", Color: "#5a3a1a", Image: "margin.png"},
	{Name: "Recess Kid", Verse: "Born on the playground, raised on the bench!", Color: "#a46422", Image: "recess.png"},
	{Name: "Nova Quill", Verse: "We fly, we fly, past the blackboard sky!", Color: "#f4b41c", Image: "nova.png"},
	{Name: "Four Walls", Verse: "What kind of quiz is this anyway?", Color: "#c2a284", Image: "fourwalls.png"},
	{Name: "Playground Prophet", Verse: "What? What? What? Pass the note!", Color: "#d2b48c", Image: "prophet.png"},
	{Name: "Tomorrow", Verse: "Mask off, books closed, lights out!", Color: "#6d4c3d", Image: "tomorrow.png"},
	{Name: "Miss Tardy", Verse: "Live loud, sit down, late slips do it well!", Color: "#a46422", Image: "tardy.png"},
	{Name: "Hall Monitor", Verse: "Eyes on the whole class, all day!", Color: "#e0ac69", Image: "hallmonitor.png"},
	{Name: "Ye Olde Bell", Verse: "I ring for no one, yet everyone runs!", Color: "#4a2a0a", Image: "bell.png"},
	{Name: "Doctor Detention", Verse: "Been there, done that, back for more!", Color: "#8c6f5a", Image: "detention.png"},
	{Name: "Metro Locker", Verse: "If the locker don't trust you, nobody will!", Color: "#46250e", Image: "locker.png"},
	{Name: "Sola Rae", Verse: "Sorry I'm not sorry, I'm still talking!", Color: "#a46422", Image: "sola.png"},
	{Name: "Lana Ledger", Verse: "My old teacher is a hard one, but I love the class!", Color: "#f8d8be", Image: "ledger.png"},
}

// Passages is the pool a typing race draws its text from.
var Passages = []string{
	"The sun rises over the quiet hills, painting the sky in shades of pink and gold, welcoming a peaceful morning.",
	"Small birds hop between branches, chirping happily while the cool breeze carries the scent of blooming flowers through the open fields.",
	"In the village square, children play games while elders share stories under the shade of an ancient, twisted banyan tree.",
	"The market bustles with life as vendors display colorful fruits, fragrant spices, and handmade goods to eager, wandering customers.",
	"Waves crash against the rocky shoreline, spraying salty mist into the air as seagulls circle above, searching for their next meal.",
	"The narrow path winds through dense forest, where sunlight filters through green leaves, creating shifting patterns on the moss-covered ground.",
	"A wooden boat drifts slowly along the calm river, its oars dipping rhythmically as a fisherman casts his net into the water.",
	"Heavy rain pounds on the tin roof, the sound blending with distant thunder while lightning illuminates the dark, stormy countryside.",
	"In the library, rows of dusty books hide forgotten knowledge, waiting for curious hands to open their pages and uncover lost wisdom.",
	"A train whistles in the distance, its glowing lights cutting through thick fog as it speeds toward the sleeping town ahead.",
	"The scent of fresh bread drifts from the bakery, tempting passersby to step inside and warm themselves by the old stone oven.",
	"At dawn, the mountain peaks glow in golden light, their snowy caps shining against the deep blue of the waking sky.",
	"A lone wolf howls in the distance, its voice echoing through the valley as the moon climbs higher in the cold night sky.",
	"The old clock tower tolls midnight, its chimes resonating through the quiet streets as fog creeps along cobblestones in eerie silence.",
	"Snow falls gently on the rooftops, blanketing the world in white, muting all sound except the crunch of footsteps in the still air.",
	"The lighthouse stands firm against the storm, its beam sweeping across the black sea, guiding sailors safely to the rocky shore.",
	"The blacksmith hammers glowing metal, sparks flying into the air as the rhythmic clang echoes through the village streets and nearby hills.",
	"In a towering canyon, wind whistles through narrow passages. Shadows move strangely, and the air feels heavy with mystery.",
}
